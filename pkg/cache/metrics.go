package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts entries found in Redis, by freshness
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artic_cache_hits_total",
		Help: "Cached collection pages found, by freshness (fresh, stale)",
	}, []string{"freshness"})

	// CacheMisses counts lookups that found nothing
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artic_cache_misses_total",
		Help: "Total number of collection API cache misses",
	})

	// CacheWrites counts stored entries
	CacheWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artic_cache_writes_total",
		Help: "Total number of collection pages written to the cache",
	})

	// CacheBytesWritten counts encoded entry bytes sent to Redis
	CacheBytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artic_cache_written_bytes_total",
		Help: "Bytes of encoded cache entries written to Redis",
	})

	// ConditionalRequestsSent counts revalidations with If-None-Match / If-Modified-Since
	ConditionalRequestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artic_conditional_requests_total",
		Help: "Total number of conditional requests sent to the collection API",
	})

	// NotModifiedResponses counts 304 answers
	NotModifiedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artic_304_responses_total",
		Help: "Total number of 304 Not Modified responses",
	})

	// CacheErrors counts failed Redis operations
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artic_cache_errors_total",
		Help: "Total number of cache operation errors",
	}, []string{"operation"}) // get, set, delete, purge
)
