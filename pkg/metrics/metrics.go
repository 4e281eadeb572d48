// Package metrics provides the Prometheus registry and HTTP handler for
// artic-select. All metrics are defined in their respective packages (client,
// cache, ratelimit, pagination, session, server) to maintain modularity and
// avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects everything registered on Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the metrics in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Rate Limit Metrics (pkg/ratelimit):
//   - artic_rate_limit_remaining (Gauge): Requests remaining in the API window
//   - artic_rate_limit_blocks_total (Counter): Requests blocked at the critical threshold
//   - artic_rate_limit_throttles_total (Counter): Requests delayed at the warning threshold
//
// Cache Metrics (pkg/cache):
//   - artic_cache_hits_total{freshness} (Counter): Cached pages found, fresh or stale
//   - artic_cache_misses_total (Counter): Cache misses
//   - artic_cache_writes_total (Counter): Pages written to the cache
//   - artic_cache_written_bytes_total (Counter): Encoded bytes written to Redis
//   - artic_304_responses_total (Counter): 304 Not Modified responses
//   - artic_conditional_requests_total (Counter): Conditional requests sent
//   - artic_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - artic_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - artic_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - artic_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//   - artic_retries_total{error_class} (Counter): Retry attempts
//   - artic_retry_backoff_seconds{error_class} (Histogram): Backoff duration
//   - artic_retry_exhausted_total{error_class} (Counter): Requests that exhausted retries
//
// Paging Metrics (pkg/pagination):
//   - artsel_prefetch_pages_total{outcome} (Counter): Prefetched pages by outcome
//   - artsel_prefetch_duration_seconds (Histogram): Duration of a prefetch batch
//
// Selection Metrics (pkg/session):
//   - artsel_page_loads_total{outcome} (Counter): Page deliveries (ok, error, stale)
//   - artsel_selection_toggles_total (Counter): Row toggles
//   - artsel_bulk_applies_total{outcome} (Counter): Bulk commands (ok, rejected, cleared)
//
// Server Metrics (internal/server):
//   - artsel_sessions_active (Gauge): Open HTTP sessions
//   - artsel_http_requests_total{route, status} (Counter): API requests
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(artic_cache_hits_total{freshness="fresh"}[5m])) /
//   (sum(rate(artic_cache_hits_total[5m])) + sum(rate(artic_cache_misses_total[5m])))
//
//   # Stale responses discarded
//   rate(artsel_page_loads_total{outcome="stale"}[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(artic_request_duration_seconds_bucket[5m]))
