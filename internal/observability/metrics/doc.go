// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Cache metrics (fresh lookups, stale reads, writes, key count)
//   - Source metrics (per-source fetch results, durations, item counts)
//   - Resilience metrics (timeouts, fallbacks, limiter queueing)
//   - Feed metrics (assembled responses, producer runs)
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "bayarea-dashboard/internal/observability/metrics"
//
//	func fetchSource(id string) {
//	    start := time.Now()
//	    items, err := fetch()
//	    metrics.RecordSourceFetch(id, entity.Classify(err), time.Since(start), len(items))
//	}
package metrics
