package cache

import (
	"net/url"
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "detail endpoint",
			key:  CacheKey{Endpoint: "/pokemon/pikachu"},
			want: "pokeapi:pokemon/pikachu",
		},
		{
			name: "trailing slash and case normalised",
			key:  CacheKey{Endpoint: "/pokemon/Pikachu/"},
			want: "pokeapi:pokemon/pikachu",
		},
		{
			name: "listing with sorted query params",
			key: CacheKey{
				Endpoint: "/pokemon",
				QueryParams: url.Values{
					"offset": []string{"48"},
					"limit":  []string{"24"},
				},
			},
			want: "pokeapi:pokemon:limit=24:offset=48",
		},
		{
			name: "empty endpoint",
			key:  CacheKey{},
			want: "pokeapi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("CacheKey.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	key := CacheKey{
		Endpoint: "/pokemon",
		QueryParams: url.Values{
			"limit":  []string{"24"},
			"offset": []string{"0"},
		},
	}

	first := key.String()
	for i := 0; i < 10; i++ {
		if got := key.String(); got != first {
			t.Errorf("result[%d] = %v, want %v (not deterministic)", i, got, first)
		}
	}
}
