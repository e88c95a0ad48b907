// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

// Package metrics provides Prometheus instrumentation for Trackpool.
//
// All collectors are registered with the default registry through promauto
// and exposed on /metrics. Callers use the Record* helpers rather than
// touching the vectors directly:
//
//	start := time.Now()
//	result, err := engine.Expand(ctx, userID, seeds, 0)
//	metrics.RecordExpansion("success", result.Added, time.Since(start))
//
// # Metric Families
//
//   - api_*: HTTP request counts, latency, active requests, rate limit rejections
//   - circuit_breaker_*: state, requests, consecutive failures, transitions
//   - source_*: similarity source lookups, retries and latency
//   - rate_limiter_*: sliding-window waits and denials
//   - expansion_*: runs, added tracks, duration
//   - ranking_*: runs by mode and learned-mode fallbacks
//   - batch_cache_*: hits, misses, invalidations, entries
//   - events_*: pool mutation events published and consumed
//   - store_operation_errors_total: failed store operations
package metrics
