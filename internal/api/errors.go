// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package api

// Error codes returned in APIError.Code.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidBody       = "INVALID_REQUEST_BODY"
	CodeInsufficientSeeds = "INSUFFICIENT_SEED_DATA"
	CodeRateLimited       = "RATE_LIMIT_EXCEEDED"
	CodeRetryLater        = "RETRY_LATER"
	CodeInternal          = "INTERNAL_ERROR"
)
