// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package models

import "errors"

// Domain error taxonomy. Callers match with errors.Is.
var (
	// ErrRateLimitExceeded means admission was denied by a sliding-window limiter.
	// Retry after the reported wait time.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrExternalSourceUnavailable means a metadata lookup failed after retries
	// or was rejected by an open circuit.
	ErrExternalSourceUnavailable = errors.New("external source unavailable")

	// ErrInsufficientSeedData means the user has no liked tracks or an empty pool.
	// The user must import or like tracks before recommendations can be built.
	ErrInsufficientSeedData = errors.New("insufficient seed data")

	// ErrModelTrainingFailure means learned ranking could not train or predict.
	// It is absorbed by falling back to random ordering.
	ErrModelTrainingFailure = errors.New("model training failure")

	// ErrTemporarilyUnavailable means a storage or infrastructure failure prevented
	// producing a result. Retrying later may succeed.
	ErrTemporarilyUnavailable = errors.New("temporarily unavailable")
)
