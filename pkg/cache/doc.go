// Package cache provides a Redis-backed HTTP response cache for PokeAPI.
//
// PokeAPI data is effectively static, and the service's fair use policy asks
// consumers to cache resources locally. The cache manager provides:
//
// - TTLs derived from Cache-Control max-age or Expires, with a long default
// - ETag support for conditional requests (If-None-Match)
// - Last-Modified support (If-Modified-Since)
// - Deterministic cache keys from endpoint path and query
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Endpoint:    "/pokemon",
//		QueryParams: url.Values{"limit": {"24"}, "offset": {"0"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from PokeAPI
//	}
//
// # HTTP Response Caching
//
//	entry, err := cache.ResponseToEntry(resp)
//	if err != nil {
//		return err
//	}
//	if entry.Cacheable() {
//		_ = manager.Set(ctx, key, entry)
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// # Metrics
//
//   - pokeapi_cache_hits_total{layer="redis"}
//   - pokeapi_cache_misses_total
//   - pokeapi_cache_size_bytes{layer="redis"}
//   - pokeapi_304_responses_total
//   - pokeapi_conditional_requests_total
//   - pokeapi_cache_errors_total{operation}
package cache
