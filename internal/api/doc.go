// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

// Package api exposes the track pool operations over HTTP using the Chi router.
//
// Routes live under /api/v1. Every response uses the models.APIResponse
// envelope. Domain errors map to status codes as follows:
//
//	ErrInsufficientSeedData   409 INSUFFICIENT_SEED_DATA
//	ErrRateLimitExceeded      429 RATE_LIMIT_EXCEEDED (with Retry-After)
//	ErrTemporarilyUnavailable 503 RETRY_LATER
//	invalid input             400 VALIDATION_ERROR
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor
//   - handlers_helpers.go: response, decoding and error mapping helpers
//   - handlers_health.go: liveness and readiness
//   - handlers_pool.go: liked import, expansion, stats, feedback and logout
//   - handlers_batches.go: recommendation batches
package api
