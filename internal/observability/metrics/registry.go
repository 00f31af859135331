// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds.
	// Buckets cover cache hits (a few ms) up to fully degraded fan-outs (several seconds).
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsInFlight tracks the current number of HTTP requests being processed
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)
)

// Cache metrics track the in-memory response cache
var (
	// CacheLookupsTotal counts fresh reads by result (hit, expired, miss)
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Total number of fresh cache lookups",
		},
		[]string{"result"},
	)

	// CacheStaleReadsTotal counts TTL-ignoring reads by result (hit, miss)
	CacheStaleReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_stale_reads_total",
			Help: "Total number of stale cache reads",
		},
		[]string{"result"},
	)

	// CacheWritesTotal counts cache writes
	CacheWritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cache_writes_total",
			Help: "Total number of cache writes",
		},
	)

	// CacheKeys tracks the number of distinct keys held. Entries are never
	// evicted, so this only grows over the process lifetime.
	CacheKeys = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_keys",
			Help: "Number of distinct keys in the cache",
		},
	)
)

// Source metrics track calls to upstream sources
var (
	// SourceFetchTotal counts source calls by source and result
	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_total",
			Help: "Total number of source fetches",
		},
		[]string{"source", "result"},
	)

	// SourceFetchDuration measures time spent on a source call including fallback
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_fetch_duration_seconds",
			Help:    "Time taken to fetch a source",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"source"},
	)

	// SourceItemsTotal counts items returned by each source
	SourceItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_items_total",
			Help: "Total number of items returned by sources",
		},
		[]string{"source"},
	)
)

// Resilience metrics track timeouts, fallbacks and limiters
var (
	// TimeoutsTotal counts calls abandoned by the timeout wrapper
	TimeoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "call_timeouts_total",
			Help: "Total number of calls that exceeded their timeout",
		},
		[]string{"label"},
	)

	// FallbackTotal counts fallback executor outcomes (primary, fallback, failed)
	FallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_invocations_total",
			Help: "Total number of fallback executor runs by outcome",
		},
		[]string{"label", "result"},
	)

	// LimiterInFlight tracks operations currently holding a limiter slot
	LimiterInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "limiter_in_flight",
			Help: "Operations currently running through a limiter",
		},
		[]string{"limiter"},
	)

	// LimiterQueued tracks operations waiting for a limiter slot
	LimiterQueued = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "limiter_queued",
			Help: "Operations waiting for a limiter slot",
		},
		[]string{"limiter"},
	)

	// LimiterWaitDuration measures time spent queued before a slot was granted
	LimiterWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "limiter_wait_duration_seconds",
			Help:    "Time spent waiting for a limiter slot",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"limiter"},
	)
)

// Assembler metrics track feed responses
var (
	// FeedResponsesTotal counts assembled responses by feed, status and cache mode
	FeedResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_responses_total",
			Help: "Total number of assembled feed responses",
		},
		[]string{"feed", "status", "cache_mode"},
	)

	// ProducerDuration measures time spent producing a fresh payload
	ProducerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_producer_duration_seconds",
			Help:    "Time taken to produce a fresh feed payload",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"feed", "result"},
	)

	// ProducerSharedTotal counts callers that joined an in-flight producer
	ProducerSharedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_producer_shared_total",
			Help: "Total number of cache misses served by an already running producer",
		},
		[]string{"feed"},
	)
)
