// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package api

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/trackpool/internal/logging"
	"github.com/tomtom215/trackpool/internal/models"
	"github.com/tomtom215/trackpool/internal/ratelimit"
	"github.com/tomtom215/trackpool/internal/store"
	"github.com/tomtom215/trackpool/internal/validation"
)

// maxBodyBytes caps request bodies. A 5000-track import fits comfortably.
const maxBodyBytes = 4 << 20

// sanitizeLogValue escapes control characters so user input cannot forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&result, "\\x%02x", r)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON writes response with an ETag. Responses are per-user state, so
// they are never cacheable by intermediaries.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag hashes data with FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondSuccess wraps data in a success envelope.
func respondSuccess(w http.ResponseWriter, data interface{}, start time.Time) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// respondError sends an error envelope. err is logged, never returned to the client.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondAPIError sends a prepared APIError, typically from validation.
func respondAPIError(w http.ResponseWriter, status int, apiErr *models.APIError) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error:    apiErr,
	})
}

// respondServiceError maps a domain error to its HTTP status and code.
func respondServiceError(w http.ResponseWriter, err error) {
	var limitErr *ratelimit.LimitError
	switch {
	case errors.As(err, &limitErr):
		respondRateLimited(w, limitErr.RetryAfter)
	case errors.Is(err, models.ErrRateLimitExceeded):
		respondRateLimited(w, time.Second)
	case errors.Is(err, models.ErrInsufficientSeedData):
		respondError(w, http.StatusConflict, CodeInsufficientSeeds, "Import or like tracks before requesting recommendations", nil)
	case errors.Is(err, store.ErrEmptyKey):
		respondError(w, http.StatusBadRequest, CodeValidation, "track_name and artist are required", nil)
	case errors.Is(err, models.ErrTemporarilyUnavailable):
		respondError(w, http.StatusServiceUnavailable, CodeRetryLater, "Temporarily unavailable, retry later", err)
	default:
		respondError(w, http.StatusInternalServerError, CodeInternal, "Internal server error", err)
	}
}

// respondRateLimited answers 429 with Retry-After rounded up to whole seconds.
func respondRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	respondError(w, http.StatusTooManyRequests, CodeRateLimited, "Too many requests, retry later", nil)
}

// validateRequest validates a struct. It returns nil when v is valid.
func validateRequest(v interface{}) *models.APIError {
	if validationErr := validation.ValidateStruct(v); validationErr != nil {
		return validationErr.ToAPIError()
	}
	return nil
}

// userIDParam reads and validates the {userID} path parameter, answering 400
// itself on failure.
func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := userPath{UserID: strings.TrimSpace(chi.URLParam(r, "userID"))}
	if apiErr := validateRequest(&p); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return "", false
	}
	return p.UserID, true
}

// decodeBody reads a JSON body into dst and validates it, answering 400
// itself on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, CodeInvalidBody, "Request body too large", nil)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidBody, "Request body must be valid JSON", nil)
		return false
	}
	if apiErr := validateRequest(dst); apiErr != nil {
		respondAPIError(w, http.StatusBadRequest, apiErr)
		return false
	}
	return true
}
