package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every cache key in Redis.
const KeyPrefix = "porto"

// CacheKey identifies a cached response.
type CacheKey struct {
	// Host is the upstream host, so the API and the projects host never collide.
	Host string

	// Endpoint is the request path (e.g. "/api/v1/portos").
	Endpoint string

	// QueryParams are the request query parameters (e.g. page=2).
	QueryParams url.Values

	// Scope separates responses fetched with different credentials.
	// Empty for anonymous requests.
	Scope string
}

// String renders a deterministic key:
//
//	porto:showporto.rfaridh.my.id:api/v1/portos:page=2:scope=1a2b3c4d5e6f7a8b
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	if k.Host != "" {
		parts = append(parts, strings.ToLower(k.Host))
	}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		keys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	if k.Scope != "" {
		parts = append(parts, "scope="+k.Scope)
	}

	return strings.Join(parts, ":")
}

// ScopeForToken derives a short, non-reversible scope from a bearer token.
func ScopeForToken(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
