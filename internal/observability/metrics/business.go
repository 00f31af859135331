package metrics

import (
	"time"
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// RecordCacheLookup records a fresh cache read. Result is "hit", "expired" or "miss".
func RecordCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordCacheStaleRead records a TTL-ignoring cache read.
func RecordCacheStaleRead(found bool) {
	result := "hit"
	if !found {
		result = "miss"
	}
	CacheStaleReadsTotal.WithLabelValues(result).Inc()
}

// RecordCacheWrite records a cache write and the resulting key count.
func RecordCacheWrite(keys int) {
	CacheWritesTotal.Inc()
	CacheKeys.Set(float64(keys))
}

// RecordSourceFetch records the outcome of a single source call.
// Result should be a label produced by entity.Classify, or "fallback" when
// the source only succeeded through its fallback.
func RecordSourceFetch(source, result string, duration time.Duration, items int) {
	SourceFetchTotal.WithLabelValues(source, result).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if items > 0 {
		SourceItemsTotal.WithLabelValues(source).Add(float64(items))
	}
}

// RecordTimeout records a call abandoned by the timeout wrapper.
func RecordTimeout(label string) {
	TimeoutsTotal.WithLabelValues(label).Inc()
}

// RecordFallback records a fallback executor outcome.
// Result is "primary", "fallback" or "failed".
func RecordFallback(label, result string) {
	FallbackTotal.WithLabelValues(label, result).Inc()
}

// RecordLimiterWait records time a call spent queued behind a limiter.
func RecordLimiterWait(limiter string, wait time.Duration) {
	LimiterWaitDuration.WithLabelValues(limiter).Observe(wait.Seconds())
}

// RecordFeedResponse records an assembled response.
func RecordFeedResponse(feed, status, cacheMode string) {
	FeedResponsesTotal.WithLabelValues(feed, status, cacheMode).Inc()
}

// RecordProducer records the duration and outcome of a producer run.
func RecordProducer(feed string, duration time.Duration, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	ProducerDuration.WithLabelValues(feed, result).Observe(duration.Seconds())
}

// RecordProducerShared records a caller that reused an in-flight producer.
func RecordProducerShared(feed string) {
	ProducerSharedTotal.WithLabelValues(feed).Inc()
}
