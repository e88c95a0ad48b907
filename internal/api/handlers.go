// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package api

import (
	"context"
	"time"

	"github.com/tomtom215/trackpool/internal/config"
	"github.com/tomtom215/trackpool/internal/models"
	"github.com/tomtom215/trackpool/internal/ratelimit"
	"github.com/tomtom215/trackpool/internal/service"
)

// readTimeout bounds every non-expansion request.
const readTimeout = 10 * time.Second

// PoolService is the set of caller operations the handlers expose.
type PoolService interface {
	ImportLiked(ctx context.Context, userID string, tracks []models.Track) (*service.ImportResult, error)
	Expand(ctx context.Context, userID string) (*service.ExpandResult, error)
	GetRecommendations(ctx context.Context, userID string) (*service.Batch, error)
	NextBatch(ctx context.Context, userID string) (*service.Batch, error)
	PreviousBatch(ctx context.Context, userID string) (*service.Batch, error)
	SubmitFeedback(ctx context.Context, userID string, in service.FeedbackInput) (*models.Feedback, error)
	Stats(ctx context.Context, userID string) (*models.Stats, error)
	Logout(ctx context.Context, userID string)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Handler contains dependencies for API handlers.
type Handler struct {
	svc       PoolService
	limiter   *ratelimit.Limiter
	expand    config.ExpandConfig
	ready     map[string]ReadinessCheck
	startTime time.Time
}

// NewHandler creates a handler. The limiter throttles expansion per user.
func NewHandler(svc PoolService, limiter *ratelimit.Limiter, expandCfg *config.ExpandConfig) *Handler {
	return &Handler{
		svc:       svc,
		limiter:   limiter,
		expand:    *expandCfg,
		ready:     make(map[string]ReadinessCheck),
		startTime: time.Now(),
	}
}

// AddReadinessCheck registers a named check for /health/ready.
// Not safe for use once the server is serving.
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.ready[name] = check
}

// expandLimiterKey scopes the per-user expansion budget.
func expandLimiterKey(userID string) string {
	return "expand:" + userID
}
