// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package middleware

import (
	"net/http"
	"regexp"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tomtom215/trackpool/internal/logging"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// validRequestID bounds what an upstream proxy may inject into our logs.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// RequestID accepts a well-formed upstream X-Request-ID or generates a UUID.
// The ID is echoed in the response and stored in the context for logging.Ctx,
// together with a fresh correlation ID. It also populates chi's request ID
// so chi middleware and our logs agree.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if !validRequestID.MatchString(requestID) {
			requestID = logging.GenerateRequestID()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)
		r = r.WithContext(ctx)
		r.Header.Set(RequestIDHeader, requestID)

		chimiddleware.RequestID(next).ServeHTTP(w, r)
	})
}
