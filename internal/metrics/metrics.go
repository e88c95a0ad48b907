// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 120},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Similarity Source Metrics
	SourceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_requests_total",
			Help: "Lookups against the similarity source by method and result",
		},
		[]string{"method", "result"}, // result: "ok", "empty", "throttled", "error"
	)

	SourceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_request_duration_seconds",
			Help:    "Duration of a similarity source lookup including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)

	SourceRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_retries_total",
			Help: "Retried attempts against the similarity source",
		},
		[]string{"method"},
	)

	RateLimiterWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rate_limiter_wait_seconds",
			Help:    "Time spent waiting for sliding-window admission",
			Buckets: []float64{0, 0.01, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"key"},
	)

	RateLimiterDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_denied_total",
			Help: "Calls denied by the sliding-window limiter",
		},
		[]string{"key"},
	)

	// Expansion Metrics
	ExpansionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expansion_runs_total",
			Help: "Pool expansion runs by outcome",
		},
		[]string{"status"}, // "success", "error", "no_seeds"
	)

	ExpansionTracksAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expansion_tracks_added_total",
			Help: "Tracks persisted into pools by expansion",
		},
	)

	ExpansionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "expansion_duration_seconds",
			Help:    "Duration of pool expansion runs",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// Ranking Metrics
	RankingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_runs_total",
			Help: "Ranking runs by resulting mode",
		},
		[]string{"mode"},
	)

	RankingFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranking_fallbacks_total",
			Help: "Learned ranking attempts that fell back to random order",
		},
		[]string{"reason"}, // "single_class", "train_error", "predict_error", "panic", "no_candidates"
	)

	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ranking_duration_seconds",
			Help:    "Duration of ranking including model training",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Batch Cache Metrics
	BatchCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_cache_hits_total",
			Help: "Batch requests served from cached state",
		},
	)

	BatchCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_cache_misses_total",
			Help: "Batch requests that rebuilt state",
		},
	)

	BatchCacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_cache_invalidations_total",
			Help: "Batch state evictions by reason",
		},
		[]string{"reason"},
	)

	BatchCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "batch_cache_entries",
			Help: "Current number of users with cached batch state",
		},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Pool mutation events published",
		},
		[]string{"reason"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Pool mutation events consumed by result",
		},
		[]string{"result"}, // "invalidated", "self", "malformed"
	)

	EventPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_publish_errors_total",
			Help: "Pool mutation events that failed to publish",
		},
	)

	// Store Metrics
	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Failed store operations",
		},
		[]string{"operation"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a rejected API request.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordSourceRequest records a completed similarity source lookup.
func RecordSourceRequest(method, result string, duration time.Duration) {
	SourceRequests.WithLabelValues(method, result).Inc()
	SourceRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordSourceRetry records one retried attempt.
func RecordSourceRetry(method string) {
	SourceRetries.WithLabelValues(method).Inc()
}

// RecordLimiterWait records time spent blocked on a sliding-window key.
func RecordLimiterWait(key string, waited time.Duration) {
	RateLimiterWaitDuration.WithLabelValues(key).Observe(waited.Seconds())
}

// RecordLimiterDenied records a denied admission.
func RecordLimiterDenied(key string) {
	RateLimiterDenied.WithLabelValues(key).Inc()
}

// RecordExpansion records an expansion run.
func RecordExpansion(status string, added int, duration time.Duration) {
	ExpansionRuns.WithLabelValues(status).Inc()
	if added > 0 {
		ExpansionTracksAdded.Add(float64(added))
	}
	ExpansionDuration.Observe(duration.Seconds())
}

// RecordRanking records a ranking run and its resulting mode.
func RecordRanking(mode string, duration time.Duration) {
	RankingRuns.WithLabelValues(mode).Inc()
	RankingDuration.Observe(duration.Seconds())
}

// RecordRankingFallback records a learned ranking attempt that fell back to random.
func RecordRankingFallback(reason string) {
	RankingFallbacks.WithLabelValues(reason).Inc()
}

// RecordBatchCacheHit records a batch served from cached state.
func RecordBatchCacheHit() {
	BatchCacheHits.Inc()
}

// RecordBatchCacheMiss records a batch that had to be rebuilt.
func RecordBatchCacheMiss() {
	BatchCacheMisses.Inc()
}

// RecordBatchInvalidation records an eviction of cached batch state.
func RecordBatchInvalidation(reason string) {
	BatchCacheInvalidations.WithLabelValues(reason).Inc()
}

// SetBatchCacheEntries sets the number of cached users.
func SetBatchCacheEntries(n int) {
	BatchCacheEntries.Set(float64(n))
}

// RecordEventPublished records a published pool mutation event.
func RecordEventPublished(reason string) {
	EventsPublished.WithLabelValues(reason).Inc()
}

// RecordEventPublishError records a failed publish.
func RecordEventPublishError() {
	EventPublishErrors.Inc()
}

// RecordEventConsumed records a consumed pool mutation event.
func RecordEventConsumed(result string) {
	EventsConsumed.WithLabelValues(result).Inc()
}

// RecordStoreError records a failed store operation.
func RecordStoreError(operation string) {
	StoreOperationErrors.WithLabelValues(operation).Inc()
}
