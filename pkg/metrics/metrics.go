// Package metrics exposes the Prometheus registry shared by the site.
// Metrics are defined in their respective packages (client, cache, ratelimit,
// section, web) to avoid circular dependencies; this package only serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every package registers into via promauto.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the read side of Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - porto_rate_limit_remaining (Gauge): Requests remaining in the current upstream window
//   - porto_rate_limit_blocks_total (Counter): Requests refused locally while the window is exhausted
//   - porto_rate_limit_throttles_total (Counter): Requests delayed because the window is nearly exhausted
//   - porto_rate_limit_state_errors_total (Counter): Unreadable state reads that let the request through
//
// Cache Metrics (pkg/cache):
//   - porto_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - porto_cache_misses_total (Counter): Cache misses
//   - porto_cache_size_bytes{layer="redis"} (Gauge): Bytes written to the cache
//   - porto_cache_not_modified_total (Counter): 304 Not Modified responses
//   - porto_cache_conditional_requests_total (Counter): Conditional requests sent
//   - porto_cache_errors_total{operation} (Counter): Cache operation errors
//
// Content API Metrics (pkg/client):
//   - porto_api_requests_total{endpoint, status} (Counter)
//   - porto_api_request_duration_seconds{endpoint} (Histogram)
//   - porto_api_errors_total{class} (Counter): client, server, rate_limit, network
//   - porto_api_retries_total{error_class} (Counter)
//   - porto_api_retry_backoff_seconds{error_class} (Histogram)
//   - porto_api_retry_exhausted_total{error_class} (Counter)
//
// Section Metrics (pkg/section):
//   - porto_section_fetch_cycles_total{section, outcome} (Counter): applied, failed, stale
//   - porto_section_fetch_failures_total{section} (Counter)
//   - porto_section_fetch_duration_seconds{section} (Histogram)
//
// Site Metrics (internal/web):
//   - porto_http_requests_total{route, method, status} (Counter)
//   - porto_http_request_duration_seconds{route} (Histogram)
//   - porto_sessions_active (Gauge)
//   - porto_sessions_evicted_total (Counter)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(porto_cache_hits_total[5m])) /
//   (sum(rate(porto_cache_hits_total[5m])) + sum(rate(porto_cache_misses_total[5m])))
//
//   # Failed section loads
//   rate(porto_section_fetch_cycles_total{outcome="failed"}[5m])
//
//   # P95 Content API Latency
//   histogram_quantile(0.95, rate(porto_api_request_duration_seconds_bucket[5m]))
