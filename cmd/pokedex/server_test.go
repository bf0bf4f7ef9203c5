package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/pokedex-loader/internal/testutil"
	"github.com/Sternrassler/pokedex-loader/pkg/client"
	"github.com/Sternrassler/pokedex-loader/pkg/loader"
	"github.com/Sternrassler/pokedex-loader/pkg/pokemon"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, count int) (*httptest.Server, *testutil.MockPokeAPI) {
	t.Helper()

	mock := testutil.NewMockPokeAPI(count)
	t.Cleanup(mock.Close)

	cfg := client.DefaultConfig("PokedexTest/1.0.0 (test@example.com)")
	cfg.BaseURL = mock.URL()
	cfg.RequestsPerSecond = 1000
	c, err := client.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	l := loader.New(c, loader.WithLogger(zerolog.Nop()))
	srv := httptest.NewServer(newServer(l, zerolog.Nop()).routes())
	t.Cleanup(srv.Close)

	return srv, mock
}

func do(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, 0)

	resp := do(t, http.MethodGet, srv.URL+"/health")
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestStateEndpoint_Initial(t *testing.T) {
	srv, _ := newTestServer(t, 30)

	resp := do(t, http.MethodGet, srv.URL+"/api/state")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	state := decode[loader.State](t, resp)
	assert.Empty(t, state.Records)
	assert.True(t, state.HasMore)
	assert.False(t, state.IsLoading)
	assert.Equal(t, 0, state.CurrentPageIndex)
}

func TestNextPageEndpoint(t *testing.T) {
	srv, mock := newTestServer(t, 30)

	resp := do(t, http.MethodPost, srv.URL+"/api/pages/next")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[loader.State](t, resp)
	assert.Len(t, state.Records, 24)
	assert.Equal(t, 1, state.CurrentPageIndex)
	assert.True(t, state.HasMore)

	resp = do(t, http.MethodPost, srv.URL+"/api/pages/next")
	state = decode[loader.State](t, resp)
	assert.Len(t, state.Records, 30)
	assert.False(t, state.HasMore)

	// Exhausted: no further listing requests.
	do(t, http.MethodPost, srv.URL+"/api/pages/next")
	assert.Equal(t, 2, mock.ListCount())

	resp = do(t, http.MethodGet, srv.URL+"/api/pages/next")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestNextPageEndpoint_Failure(t *testing.T) {
	srv, mock := newTestServer(t, 24)
	mock.FailDetail("pokemon-2", http.StatusInternalServerError)

	resp := do(t, http.MethodPost, srv.URL+"/api/pages/next")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	state := decode[loader.State](t, resp)
	assert.Empty(t, state.Records)
	assert.Contains(t, state.LastError, "pokemon-2")
	assert.False(t, state.IsLoading)
}

func TestNextPageEndpoint_ClientDisconnectDoesNotAbortLoad(t *testing.T) {
	srv, mock := newTestServer(t, 30)
	mock.Block()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/api/pages/next", nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			resp.Body.Close()
		}
		done <- err
	}()

	require.Eventually(t, func() bool {
		return mock.DetailCount() == 24
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	mock.Release()

	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/api/state")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var state loader.State
		return json.NewDecoder(resp.Body).Decode(&state) == nil && !state.IsLoading
	}, 5*time.Second, 10*time.Millisecond)

	state := decode[loader.State](t, do(t, http.MethodGet, srv.URL+"/api/state"))
	assert.Len(t, state.Records, 24)
	assert.Equal(t, 1, state.CurrentPageIndex)
	assert.Empty(t, state.LastError)
}

func TestDetailEndpoint(t *testing.T) {
	srv, mock := newTestServer(t, 10)

	resp := do(t, http.MethodGet, srv.URL+"/api/pokemon/4")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	record := decode[pokemon.Record](t, resp)
	assert.Equal(t, "pokemon-4", record.Name)

	resp = do(t, http.MethodGet, srv.URL+"/api/pokemon/missingno")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, decode[errorBody](t, resp).Error, "404")

	mock.FailDetail("pokemon-5", http.StatusServiceUnavailable)
	resp = do(t, http.MethodGet, srv.URL+"/api/pokemon/pokemon-5")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestSelectionEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, 5)
	do(t, http.MethodPost, srv.URL+"/api/pages/next")

	resp := do(t, http.MethodPut, srv.URL+"/api/selection/pokemon-3")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[loader.State](t, resp)
	require.NotNil(t, state.Selected)
	assert.Equal(t, "pokemon-3", state.Selected.Name)

	resp = do(t, http.MethodPut, srv.URL+"/api/selection/pikachu")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/api/selection")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	state = decode[loader.State](t, do(t, http.MethodGet, srv.URL+"/api/state"))
	assert.Nil(t, state.Selected)
}

func TestSearchEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, 24)
	do(t, http.MethodPost, srv.URL+"/api/pages/next")

	records := decode[[]pokemon.Record](t, do(t, http.MethodGet, srv.URL+"/api/pokemon?q=POKEMON-1"))
	// pokemon-1 and pokemon-10 through pokemon-19
	assert.Len(t, records, 11)

	state := decode[loader.State](t, do(t, http.MethodGet, srv.URL+"/api/state"))
	assert.Equal(t, "POKEMON-1", state.SearchQuery)

	// Without q the current query is kept.
	records = decode[[]pokemon.Record](t, do(t, http.MethodGet, srv.URL+"/api/pokemon"))
	assert.Len(t, records, 11)

	records = decode[[]pokemon.Record](t, do(t, http.MethodGet, srv.URL+"/api/pokemon?q="))
	assert.Len(t, records, 24)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, 3)
	do(t, http.MethodPost, srv.URL+"/api/pages/next")

	resp := do(t, http.MethodGet, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)

	assert.True(t, strings.Contains(string(body), `pokedex_page_loads_total{result="success"}`))
	assert.Contains(t, string(body), "pokeapi_requests_total")
}
