package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts served entries by freshness ("fresh", "revalidated").
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "porto_cache_hits_total",
			Help: "Total number of content API responses served from cache",
		},
		[]string{"freshness"},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "porto_cache_misses_total",
			Help: "Total number of content API cache misses",
		},
	)

	// CacheSize tracks bytes written to Redis since startup.
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "porto_cache_size_bytes",
			Help: "Bytes of content API responses written to cache",
		},
	)

	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "porto_cache_not_modified_total",
			Help: "Total number of 304 Not Modified responses from the content API",
		},
	)

	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "porto_cache_conditional_requests_total",
			Help: "Total number of conditional requests sent to the content API",
		},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "porto_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
