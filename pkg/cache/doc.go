// Package cache stores collection API responses in Redis so that revisiting a
// page, or a page warmed by the prefetcher, costs no request against the public
// rate limit.
//
// Entries honour the server's freshness information:
//
//   - Expires, or Cache-Control max-age, decides when an entry turns stale
//   - stale entries with an ETag or Last-Modified stay in Redis for
//     DefaultStaleRetention so they can be revalidated
//   - a 304 Not Modified makes the stored entry fresh again
//
// Keys are prefixed with "artic:cache:" so Purge can drop every page without
// touching the shared rate limit state.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{
//		Endpoint: "/api/v1/artworks",
//		Query:    url.Values{"page": {"2"}, "limit": {"12"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) || entry.IsExpired() {
//		// fetch from the API, then:
//		entry, _ = cache.ResponseToEntry(resp)
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
//   - artic_cache_hits_total{freshness}
//   - artic_cache_misses_total
//   - artic_cache_writes_total
//   - artic_cache_written_bytes_total
//   - artic_conditional_requests_total
//   - artic_304_responses_total
//   - artic_cache_errors_total{operation}
package cache
