// Package cache stores content API responses in Redis so that repeated page
// renders and pagination clicks do not hit the upstream API every time.
//
// Entries carry the upstream validators (ETag, Last-Modified) and an expiry
// derived from the Expires header, or DefaultTTL when the API sends none.
// Redis keeps an entry for StaleWindow past its expiry so that a stale entry
// can still be revalidated with a conditional request.
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Host:        "showporto.rfaridh.my.id",
//		Endpoint:    "/api/v1/portos",
//		QueryParams: url.Values{"page": []string{"2"}},
//		Scope:       cache.ScopeForToken(token),
//	}
//
//	entry, err := manager.Get(ctx, key)
//	switch {
//	case errors.Is(err, cache.ErrCacheMiss):
//		// fetch upstream, then manager.Set(ctx, key, entry)
//	case entry.IsExpired() && cache.ShouldMakeConditionalRequest(entry):
//		cache.AddConditionalHeaders(req, entry)
//	}
//
// Metrics exported:
//
//   - porto_cache_hits_total{freshness}
//   - porto_cache_misses_total
//   - porto_cache_size_bytes
//   - porto_cache_not_modified_total
//   - porto_cache_conditional_requests_total
//   - porto_cache_errors_total{operation}
package cache
