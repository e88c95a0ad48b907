// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// MaintenanceTask is one periodic housekeeping job.
type MaintenanceTask struct {
	Name string
	Run  func(ctx context.Context) error
}

// MaintenanceService runs housekeeping tasks on a fixed interval: pruning
// idle limiter keys, sweeping expired batches and compacting the store.
// A failing task is logged and retried next tick; it never stops the others.
type MaintenanceService struct {
	interval time.Duration
	tasks    []MaintenanceTask
	logger   zerolog.Logger
}

// NewMaintenanceService creates the service. A non-positive interval means 1m.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMaintenanceService(interval time.Duration, tasks []MaintenanceTask, logger zerolog.Logger) *MaintenanceService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &MaintenanceService{
		interval: interval,
		tasks:    tasks,
		logger:   logger.With().Str("service", "maintenance").Logger(),
	}
}

// Serve implements suture.Service.
func (s *MaintenanceService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Int("tasks", len(s.tasks)).Msg("maintenance service starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs every task once and returns how many failed.
func (s *MaintenanceService) RunOnce(ctx context.Context) int {
	failed := 0
	for _, task := range s.tasks {
		if ctx.Err() != nil {
			return failed
		}
		start := time.Now()
		if err := s.run(ctx, task); err != nil {
			failed++
			s.logger.Warn().Err(err).Str("task", task.Name).Msg("maintenance task failed")
			continue
		}
		s.logger.Debug().Str("task", task.Name).Dur("duration", time.Since(start)).Msg("maintenance task done")
	}
	return failed
}

// run shields the loop from a panicking task.
func (s *MaintenanceService) run(ctx context.Context, task MaintenanceTask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return task.Run(ctx)
}

func (s *MaintenanceService) String() string {
	return "maintenance-service"
}
