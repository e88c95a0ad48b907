// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/tomtom215/trackpool/internal/models"
)

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks,omitempty"`
}

// HealthLive handles GET /api/v1/health/live. It only proves the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	respondSuccess(w, &HealthStatus{
		Status:        "alive",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}, start)
}

// HealthReady handles GET /api/v1/health/ready. It answers 503 when any
// registered check fails.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.ready))
	for name := range h.ready {
		names = append(names, name)
	}
	sort.Strings(names)

	status := &HealthStatus{
		Status:        "ready",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        make(map[string]string, len(names)),
	}
	for _, name := range names {
		if err := h.ready[name](ctx); err != nil {
			status.Checks[name] = err.Error()
			status.Status = "not_ready"
			continue
		}
		status.Checks[name] = "ok"
	}

	if status.Status != "ready" {
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status:   "error",
			Data:     status,
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    &models.APIError{Code: CodeRetryLater, Message: "Service not ready"},
		})
		return
	}
	respondSuccess(w, status, start)
}
