// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/trackpool/internal/logging"
	"github.com/tomtom215/trackpool/internal/service"
)

type batchFunc func(ctx context.Context, userID string) (*service.Batch, error)

// serveBatch runs one of the batch operations for the path user.
func serveBatch(w http.ResponseWriter, r *http.Request, fetch batchFunc) {
	start := time.Now()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(logging.ContextWithUserID(r.Context(), userID), readTimeout)
	defer cancel()

	batch, err := fetch(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, batch, start)
}

// Recommendations handles POST /api/v1/users/{userID}/recommendations.
// It ranks the pool afresh and returns the first page.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	serveBatch(w, r, h.svc.GetRecommendations)
}

// NextBatch handles POST /api/v1/users/{userID}/recommendations/next.
func (h *Handler) NextBatch(w http.ResponseWriter, r *http.Request) {
	serveBatch(w, r, h.svc.NextBatch)
}

// PreviousBatch handles POST /api/v1/users/{userID}/recommendations/previous.
func (h *Handler) PreviousBatch(w http.ResponseWriter, r *http.Request) {
	serveBatch(w, r, h.svc.PreviousBatch)
}
