package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Sternrassler/pokedex-loader/pkg/client"
	"github.com/Sternrassler/pokedex-loader/pkg/loader"
	"github.com/Sternrassler/pokedex-loader/pkg/metrics"
	"github.com/rs/zerolog"
)

// server exposes one loader session over HTTP.
type server struct {
	loader *loader.Loader
	logger zerolog.Logger
}

func newServer(l *loader.Loader, logger zerolog.Logger) *server {
	return &server{loader: l, logger: logger}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/pages/next", s.handleNextPage)
	mux.HandleFunc("GET /api/pokemon", s.handleSearch)
	mux.HandleFunc("GET /api/pokemon/{nameOrId}", s.handleDetail)
	mux.HandleFunc("PUT /api/selection/{name}", s.handleSelect)
	mux.HandleFunc("DELETE /api/selection", s.handleClearSelection)
	return s.logRequests(mux)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.loader.State())
}

// handleNextPage answers with the resulting state. A failed load is reported
// as 502 with the error recorded in lastError.
func (s *server) handleNextPage(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	if err := s.loader.LoadNextPage(r.Context()); err != nil {
		status = http.StatusBadGateway
	}
	s.respond(w, status, s.loader.State())
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if q, ok := r.URL.Query()["q"]; ok {
		s.loader.SetSearchQuery(q[0])
	}
	s.respond(w, http.StatusOK, s.loader.Filtered())
}

func (s *server) handleDetail(w http.ResponseWriter, r *http.Request) {
	record, err := s.loader.ResolveDetail(r.Context(), r.PathValue("nameOrId"))
	switch {
	case client.IsNotFound(err):
		s.respondError(w, http.StatusNotFound, err)
	case err != nil:
		s.respondError(w, http.StatusBadGateway, err)
	default:
		s.respond(w, http.StatusOK, record)
	}
}

func (s *server) handleSelect(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	record, ok := s.loader.Find(name)
	if !ok {
		s.respond(w, http.StatusNotFound, errorBody{Error: "pokemon not loaded: " + name})
		return
	}
	s.loader.Select(record)
	s.respond(w, http.StatusOK, s.loader.State())
}

func (s *server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.loader.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *server) respondError(w http.ResponseWriter, status int, err error) {
	s.respond(w, status, errorBody{Error: err.Error()})
}

func (s *server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write response")
	}
}
