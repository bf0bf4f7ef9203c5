package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every key this package writes.
const KeyPrefix = "pokeapi"

// CacheKey identifies a cached PokeAPI response.
type CacheKey struct {
	// Endpoint is the path relative to the API base (e.g. "/pokemon/pikachu")
	Endpoint string

	// QueryParams are the query parameters (e.g. limit, offset)
	QueryParams url.Values
}

// String generates a deterministic cache key string.
//
// Example:
//
//	pokeapi:pokemon:limit=24:offset=48
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	endpoint := strings.ToLower(strings.Trim(k.Endpoint, "/"))
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
