// Package testutil provides testing utilities for the Pokédex loader.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/pokedex-loader/pkg/pokemon"
)

// BasePath is the path prefix the mock serves, mirroring PokeAPI's /api/v2.
const BasePath = "/api/v2"

// MockPokeAPI is a configurable mock PokeAPI server for testing.
type MockPokeAPI struct {
	server *httptest.Server

	mu          sync.RWMutex
	pokemon     []pokemon.DetailPayload
	detailFail  map[string]int
	detailDelay map[string]time.Duration
	listStatus  int
	gate        chan struct{}
	etag        string

	// Tracking
	requestCount      int
	listCount         int
	detailCount       int
	conditionalCount  int
	inFlight          int
	maxInFlight       int
	lastRequestHeader http.Header
	listOffsets       []int
}

// NewMockPokeAPI creates a mock server holding count generated Pokémon with
// ids 1..count.
func NewMockPokeAPI(count int) *MockPokeAPI {
	mock := &MockPokeAPI{
		detailFail:  make(map[string]int),
		detailDelay: make(map[string]time.Duration),
	}
	for i := 1; i <= count; i++ {
		mock.pokemon = append(mock.pokemon, NewDetailPayload(i, fmt.Sprintf("pokemon-%d", i)))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+BasePath+"/pokemon", mock.handleList)
	mux.HandleFunc("GET "+BasePath+"/pokemon/{id}", mock.handleDetail)

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.lastRequestHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.conditionalCount++
		}
		mock.inFlight++
		if mock.inFlight > mock.maxInFlight {
			mock.maxInFlight = mock.inFlight
		}
		mock.mu.Unlock()

		defer func() {
			mock.mu.Lock()
			mock.inFlight--
			mock.mu.Unlock()
		}()

		mux.ServeHTTP(w, r)
	}))

	return mock
}

// URL returns the API root of the mock, including BasePath.
func (m *MockPokeAPI) URL() string {
	return m.server.URL + BasePath
}

// Close shuts down the mock server, releasing any blocked requests first.
func (m *MockPokeAPI) Close() {
	m.Release()
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockPokeAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.listCount = 0
	m.detailCount = 0
	m.conditionalCount = 0
	m.maxInFlight = 0
	m.lastRequestHeader = nil
	m.listOffsets = nil
}

// SetPokemon replaces the full data set.
func (m *MockPokeAPI) SetPokemon(payloads ...pokemon.DetailPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pokemon = append([]pokemon.DetailPayload(nil), payloads...)
}

// FailDetail makes detail requests for name or id respond with status.
func (m *MockPokeAPI) FailDetail(nameOrID string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailFail[nameOrID] = status
}

// ClearFailures removes every injected failure.
func (m *MockPokeAPI) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailFail = make(map[string]int)
	m.listStatus = 0
}

// DelayDetail delays detail responses for name or id.
func (m *MockPokeAPI) DelayDetail(nameOrID string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailDelay[nameOrID] = d
}

// FailList makes listing requests respond with status.
func (m *MockPokeAPI) FailList(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listStatus = status
}

// EnableETags makes responses carry etag and answer matching
// If-None-Match requests with 304.
func (m *MockPokeAPI) EnableETags(etag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.etag = etag
}

// Block holds every detail request until Release is called.
func (m *MockPokeAPI) Block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate == nil {
		m.gate = make(chan struct{})
	}
}

// Release lets blocked detail requests proceed.
func (m *MockPokeAPI) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// RequestCount returns the number of requests made to the server.
func (m *MockPokeAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// ListCount returns the number of listing requests.
func (m *MockPokeAPI) ListCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listCount
}

// DetailCount returns the number of detail requests.
func (m *MockPokeAPI) DetailCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.detailCount
}

// ConditionalCount returns the number of conditional requests.
func (m *MockPokeAPI) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// MaxInFlight returns the peak number of concurrent requests observed.
func (m *MockPokeAPI) MaxInFlight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxInFlight
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockPokeAPI) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader.Clone()
}

// ListOffsets returns the offsets of all listing requests in order.
func (m *MockPokeAPI) ListOffsets() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.listOffsets...)
}

func (m *MockPokeAPI) handleList(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

	m.mu.Lock()
	m.listCount++
	m.listOffsets = append(m.listOffsets, offset)
	status := m.listStatus
	all := m.pokemon
	m.mu.Unlock()

	if status != 0 {
		writeError(w, status)
		return
	}

	page := pokemon.ListPayload{Count: len(all), Results: []pokemon.Summary{}}
	for i := offset; i < offset+limit && i < len(all); i++ {
		page.Results = append(page.Results, pokemon.Summary{
			Name: all[i].Name,
			URL:  fmt.Sprintf("%s%s/pokemon/%d/", m.server.URL, BasePath, all[i].ID),
		})
	}
	if offset+limit < len(all) {
		next := fmt.Sprintf("%s%s/pokemon?offset=%d&limit=%d", m.server.URL, BasePath, offset+limit, limit)
		page.Next = &next
	}
	if offset > 0 {
		prev := fmt.Sprintf("%s%s/pokemon?offset=%d&limit=%d", m.server.URL, BasePath, max(offset-limit, 0), limit)
		page.Previous = &prev
	}

	m.writeJSON(w, r, page)
}

func (m *MockPokeAPI) handleDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(r.PathValue("id"), "/")

	m.mu.Lock()
	m.detailCount++
	gate := m.gate
	delay := m.detailDelay[id]
	status := m.detailFail[id]
	payload, found := m.find(id)
	if found {
		if s, ok := m.detailFail[payload.Name]; ok {
			status = s
		}
		if d, ok := m.detailDelay[payload.Name]; ok {
			delay = d
		}
	}
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	if status != 0 {
		writeError(w, status)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound)
		return
	}

	m.writeJSON(w, r, payload)
}

// find must be called with m.mu held.
func (m *MockPokeAPI) find(id string) (pokemon.DetailPayload, bool) {
	n, err := strconv.Atoi(id)
	for _, p := range m.pokemon {
		if p.Name == id || (err == nil && p.ID == n) {
			return p, true
		}
	}
	return pokemon.DetailPayload{}, false
}

func (m *MockPokeAPI) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	m.mu.RLock()
	etag := m.etag
	m.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if etag != "" {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(http.StatusText(status)))
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// NewDetailPayload builds a plausible detail payload for tests.
func NewDetailPayload(id int, name string) pokemon.DetailPayload {
	front := fmt.Sprintf("https://sprites.example/front/%d.png", id)
	artwork := fmt.Sprintf("https://sprites.example/artwork/%d.png", id)
	showdown := fmt.Sprintf("https://sprites.example/showdown/%d.gif", id)

	var sprites pokemon.Sprites
	sprites.FrontDefault = &front
	sprites.Other.OfficialArtwork.FrontDefault = &artwork
	sprites.Other.Showdown.FrontDefault = &showdown

	return pokemon.DetailPayload{
		ID:      id,
		Name:    name,
		Height:  id%20 + 1,
		Weight:  id * 10,
		Sprites: sprites,
		Types: []pokemon.TypeSlot{
			{Slot: 1, Type: pokemon.NamedResource{Name: "grass"}},
		},
		Stats: []pokemon.StatEntry{
			{BaseStat: 45, Stat: pokemon.NamedResource{Name: "hp"}},
			{BaseStat: 50 + id, Stat: pokemon.NamedResource{Name: "special-attack"}},
		},
		Abilities: []pokemon.AbilitySlot{
			{Slot: 1, Ability: pokemon.NamedResource{Name: "overgrow"}},
		},
	}
}
