// Package metrics exposes the Prometheus registry shared by the Pokédex
// packages. Metrics are defined in their respective packages (client, cache,
// ratelimit, loader) and registered via promauto on import.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer all packages register their metrics with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer Handler serves from.
var Gatherer = prometheus.DefaultGatherer

// Handler returns an http.Handler serving all registered metrics in the
// Prometheus text format.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry, promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - pokeapi_rate_limit_wait_seconds (Histogram): Time requests spent waiting for a token
//   - pokeapi_rate_limit_throttles_total (Counter): Requests that had to wait for a token
//
// Cache Metrics (pkg/cache):
//   - pokeapi_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - pokeapi_cache_misses_total (Counter): Cache misses
//   - pokeapi_cache_size_bytes{layer="redis"} (Gauge): Bytes written to the cache by layer
//   - pokeapi_304_responses_total (Counter): 304 Not Modified responses
//   - pokeapi_conditional_requests_total (Counter): Conditional requests sent
//   - pokeapi_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - pokeapi_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - pokeapi_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - pokeapi_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//
// Loader Metrics (pkg/loader):
//   - pokedex_page_loads_total{result} (Counter): Page loads by result (success, error, exhausted)
//   - pokedex_page_load_duration_seconds (Histogram): Page load duration including detail resolution
//   - pokedex_records_loaded (Gauge): Records held by the most recently updated loader
//
// Example Prometheus Queries:
//
//	# Cache Hit Rate
//	sum(rate(pokeapi_cache_hits_total[5m])) /
//	(sum(rate(pokeapi_cache_hits_total[5m])) + sum(rate(pokeapi_cache_misses_total[5m])))
//
//	# Page Load Failure Rate
//	rate(pokedex_page_loads_total{result="error"}[5m]) / rate(pokedex_page_loads_total[5m])
//
//	# P95 Request Latency
//	histogram_quantile(0.95, rate(pokeapi_request_duration_seconds_bucket[5m]))
//
//	# 304 Response Rate
//	rate(pokeapi_304_responses_total[5m]) / rate(pokeapi_requests_total[5m])
