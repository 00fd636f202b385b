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
			name: "endpoint only",
			key:  CacheKey{Endpoint: "/api/v1/experiences"},
			want: "porto:api/v1/experiences",
		},
		{
			name: "host is lowercased",
			key:  CacheKey{Host: "ShowPorto.rfaridh.my.id", Endpoint: "/api/v1/portos/"},
			want: "porto:showporto.rfaridh.my.id:api/v1/portos",
		},
		{
			name: "query params sorted",
			key: CacheKey{
				Endpoint: "/api/v1/portos",
				QueryParams: url.Values{
					"per_page": []string{"6"},
					"page":     []string{"2"},
				},
			},
			want: "porto:api/v1/portos:page=2:per_page=6",
		},
		{
			name: "scoped",
			key:  CacheKey{Host: "localhost:8000", Endpoint: "/api/v1/experiences", Scope: "abcd"},
			want: "porto:localhost:8000:api/v1/experiences:scope=abcd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	key := CacheKey{
		Endpoint:    "/api/v1/portos",
		QueryParams: url.Values{"b": {"2"}, "a": {"1"}, "c": {"3"}},
	}
	first := key.String()
	for i := 0; i < 20; i++ {
		if got := key.String(); got != first {
			t.Fatalf("non-deterministic key: %q vs %q", got, first)
		}
	}
}

func TestScopeForToken(t *testing.T) {
	if got := ScopeForToken(""); got != "" {
		t.Errorf("empty token scope = %q, want empty", got)
	}

	a := ScopeForToken("token-a")
	b := ScopeForToken("token-b")
	if len(a) != 16 {
		t.Errorf("scope length = %d, want 16", len(a))
	}
	if a == b {
		t.Error("different tokens must produce different scopes")
	}
	if a != ScopeForToken("token-a") {
		t.Error("scope must be stable")
	}
}
