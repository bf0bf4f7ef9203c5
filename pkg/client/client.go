// Package client provides the PokeAPI HTTP client with request gating,
// optional Redis response caching, and error classification.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/pokedex-loader/pkg/cache"
	"github.com/Sternrassler/pokedex-loader/pkg/logging"
	"github.com/Sternrassler/pokedex-loader/pkg/pokemon"
	"github.com/Sternrassler/pokedex-loader/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for PokeAPI client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_requests_total",
		Help: "Total PokeAPI requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokeapi_request_duration_seconds",
		Help:    "PokeAPI request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokeapi_errors_total",
		Help: "Total PokeAPI errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the public PokeAPI v2 root.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// Client is the PokeAPI client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	limiter    *ratelimit.Limiter
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, without trailing slash
	BaseURL string

	// User-Agent header sent with every request
	UserAgent string

	// Timeout for a single HTTP request
	Timeout time.Duration

	// Redis enables response caching when non-nil
	Redis *redis.Client

	// Client-side rate limiting
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		UserAgent:         userAgent,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 20,
		Burst:             pokemonPageBurst,
	}
}

// pokemonPageBurst lets one full page of detail requests start at once.
const pokemonPageBurst = 24

// New creates a new PokeAPI client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (baseURL.Scheme != "http" && baseURL.Scheme != "https") || baseURL.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute http(s) url (got %q)", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	logger := logging.NewLogger("pokeapi-client")

	limiter, err := ratelimit.NewLimiter(cfg.RequestsPerSecond, cfg.Burst, logger)
	if err != nil {
		return nil, err
	}

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: baseURL,
		limiter: limiter,
		cache:   cacheManager,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Do performs an HTTP request with rate limiting, caching, and error
// classification. Non-success statuses are returned to the caller as
// responses; only transport failures yield an error. Requests are never
// retried.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := c.relativeEndpoint(req.URL.Path)
	label := endpointLabel(endpoint)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(label).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Cache
	cacheable := c.cache != nil && req.Method == http.MethodGet
	cacheKey := cache.CacheKey{
		Endpoint:    endpoint,
		QueryParams: req.URL.Query(),
	}

	var staleEntry *cache.CacheEntry
	if cacheable {
		entry, err := c.cache.Lookup(ctx, cacheKey)
		switch {
		case err == nil && !entry.IsExpired():
			c.logger.Debug().Str("endpoint", endpoint).Msg("Serving response from cache")
			requestsTotal.WithLabelValues(label, "cache").Inc()
			return cache.EntryToResponse(entry), nil
		case err == nil:
			staleEntry = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache lookup error")
		}
	}

	// Step 2: Revalidate stale entries with a conditional request
	if cache.ShouldMakeConditionalRequest(staleEntry) {
		cache.AddConditionalHeaders(req, staleEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", staleEntry.ETag).
			Msg("Making conditional request")
	}

	// Step 3: Wait for the rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &FetchError{
			Endpoint: endpoint,
			Class:    ErrorClassNetwork,
			Message:  "request not sent",
			Err:      err,
		}
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	// Step 4: Execute the request once
	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing PokeAPI request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errClass := c.classifyError(nil, err)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		requestsTotal.WithLabelValues(label, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, &FetchError{
			Endpoint: endpoint,
			Class:    errClass,
			Message:  "network error",
			Err:      err,
		}
	}

	requestsTotal.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()

	// Step 5: Handle 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && staleEntry != nil {
		cache.NotModifiedResponses.Inc()
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")

		newExpires := cache.ExpiresFromHeaders(resp.Header)
		if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return cache.EntryToResponse(staleEntry), nil
	}

	if resp.StatusCode >= 400 {
		errClass := c.classifyError(resp, nil)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("PokeAPI request error")
		return resp, nil
	}

	// Step 6: Update Cache on success
	if cacheable && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.Cacheable() {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// relativeEndpoint strips the base URL path prefix from a request path.
func (c *Client) relativeEndpoint(path string) string {
	rel := strings.TrimPrefix(path, c.baseURL.Path)
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return rel
}

// endpointLabel collapses resource identifiers to keep metric cardinality
// bounded: "/pokemon/pikachu" becomes "/pokemon/{id}".
func endpointLabel(endpoint string) string {
	segments := strings.Split(strings.Trim(endpoint, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "/"
	}
	if len(segments) == 1 {
		return "/" + segments[0]
	}
	return "/" + segments[0] + "/{id}"
}

// Get performs a GET request to a PokeAPI endpoint relative to the base URL.
// The endpoint may carry a query string.
func (c *Client) Get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String()+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// ListPage fetches one page of Pokémon summaries.
func (c *Client) ListPage(ctx context.Context, limit, offset int) (pokemon.ListPayload, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var payload pokemon.ListPayload
	if err := c.getJSON(ctx, "/pokemon?"+query.Encode(), &payload); err != nil {
		return pokemon.ListPayload{}, err
	}
	return payload, nil
}

// Detail fetches the full payload of one Pokémon by name or numeric id.
func (c *Client) Detail(ctx context.Context, nameOrID string) (pokemon.DetailPayload, error) {
	id := strings.ToLower(strings.TrimSpace(nameOrID))
	if id == "" {
		return pokemon.DetailPayload{}, &FetchError{
			Endpoint: "/pokemon/",
			Class:    ErrorClassClient,
			Message:  "pokemon identifier is required",
		}
	}

	var payload pokemon.DetailPayload
	if err := c.getJSON(ctx, "/pokemon/"+url.PathEscape(id), &payload); err != nil {
		return pokemon.DetailPayload{}, err
	}
	return payload, nil
}

// getJSON issues a GET and decodes a 2xx JSON body into v. Every failure is
// reported as *FetchError.
func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	resp, err := c.Get(ctx, endpoint)
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			return err
		}
		return &FetchError{Endpoint: endpoint, Class: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &FetchError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Class:      c.classifyError(resp, nil),
			Message:    resp.Status,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &FetchError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Class:      ErrorClassDecode,
			Message:    "invalid response body",
			Err:        err,
		}
	}

	return nil
}

// Close releases idle connections. The Redis client is owned by the caller.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// CacheManager returns the cache manager, nil when caching is disabled.
func (c *Client) CacheManager() *cache.Manager {
	return c.cache
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}
