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
	"github.com/tomtom215/trackpool/internal/metrics"
	"github.com/tomtom215/trackpool/internal/service"
)

// ImportLiked handles POST /api/v1/users/{userID}/liked.
func (h *Handler) ImportLiked(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req ImportLikedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(logging.ContextWithUserID(r.Context(), userID), readTimeout)
	defer cancel()

	result, err := h.svc.ImportLiked(ctx, userID, req.toTracks())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, result, start)
}

// Expand handles POST /api/v1/users/{userID}/expand. Each user gets a
// separate budget so one client cannot drain the shared similarity quota.
func (h *Handler) Expand(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := h.limiter.CheckOrFail(expandLimiterKey(userID), h.expand.UserMaxRequests, h.expand.UserWindow); err != nil {
		metrics.RecordRateLimitHit("expand")
		respondServiceError(w, err)
		return
	}

	// The engine stops walking at expand.timeout and persists what it has;
	// the extra readTimeout leaves room for the bookkeeping after it.
	ctx, cancel := context.WithTimeout(logging.ContextWithUserID(r.Context(), userID), h.expand.Timeout+readTimeout)
	defer cancel()

	result, err := h.svc.Expand(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, result, start)
}

// Stats handles GET /api/v1/users/{userID}/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(logging.ContextWithUserID(r.Context(), userID), readTimeout)
	defer cancel()

	stats, err := h.svc.Stats(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, stats, start)
}

// SubmitFeedback handles POST /api/v1/users/{userID}/feedback.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	var req FeedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(logging.ContextWithUserID(r.Context(), userID), readTimeout)
	defer cancel()

	fb, err := h.svc.SubmitFeedback(ctx, userID, service.FeedbackInput{
		TrackName:   req.TrackName,
		Artist:      req.Artist,
		Album:       req.Album,
		ReleaseYear: req.ReleaseYear,
		ExternalID:  req.ExternalID,
		Liked:       *req.Liked,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, fb, start)
}

// Logout handles POST /api/v1/users/{userID}/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(logging.ContextWithUserID(r.Context(), userID), readTimeout)
	defer cancel()

	h.svc.Logout(ctx, userID)
	respondSuccess(w, map[string]bool{"logged_out": true}, start)
}
