// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trackpool/internal/api"
	"github.com/tomtom215/trackpool/internal/config"
	"github.com/tomtom215/trackpool/internal/events"
	"github.com/tomtom215/trackpool/internal/expand"
	"github.com/tomtom215/trackpool/internal/lastfm"
	"github.com/tomtom215/trackpool/internal/ratelimit"
	"github.com/tomtom215/trackpool/internal/recommend"
	"github.com/tomtom215/trackpool/internal/service"
	"github.com/tomtom215/trackpool/internal/store"
	"github.com/tomtom215/trackpool/internal/supervisor"
	"github.com/tomtom215/trackpool/internal/supervisor/services"
)

// app holds the wired components and owns their shutdown.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	store    store.Store
	embedded *events.EmbeddedServer
	bus      *events.Bus
	limiter  *ratelimit.Limiter
	service  *service.Service
	handler  *api.Handler
	router   http.Handler
}

// newApp wires every component from cfg. On error, whatever was already
// opened is closed again.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newApp(cfg *config.Config, logger zerolog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	// Components scope the logger with their own "component" field.
	a.store, err = store.Open(&cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// One limiter holds both the shared Last.fm budget and the per-user
	// expansion budgets; keys never collide.
	a.limiter = ratelimit.New()
	client := lastfm.NewClient(&cfg.LastFM, a.limiter, logger)

	expander := expand.NewEngine(client, a.store, &cfg.Expand, logger)

	ranker, err := recommend.NewEngine(rankConfig(&cfg.Rank), logger)
	if err != nil {
		return nil, fmt.Errorf("create ranking engine: %w", err)
	}

	a.service = service.New(a.store, expander, ranker, &cfg.Batch, logger)

	natsURL := cfg.Events.NATSURL
	if cfg.Events.Embedded && natsURL == "" {
		a.embedded, err = events.NewEmbeddedServer(cfg.Events.EmbeddedHost, cfg.Events.EmbeddedPort)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		natsURL = a.embedded.ClientURL()
		logger.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	}

	a.bus, err = events.NewBus(&cfg.Events, natsURL, logger)
	if err != nil {
		return nil, fmt.Errorf("create event bus: %w", err)
	}
	a.service.SetNotifier(a.bus)

	a.handler = api.NewHandler(a.service, a.limiter, &cfg.Expand)
	a.handler.AddReadinessCheck("store", func(ctx context.Context) error {
		// Any read proves the backend answers; the empty user owns no data.
		_, err := a.store.PoolSize(ctx, "")
		return err
	})
	a.router = api.NewRouter(a.handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security))).SetupChi()

	return a, nil
}

// rankConfig maps settings to the ranking engine config. Seed 0 means a
// time-based seed so restarts do not replay the same shuffles.
func rankConfig(rc *config.RankConfig) *recommend.Config {
	cfg := recommend.DefaultConfig()
	cfg.LikedThreshold = rc.LikedThreshold
	cfg.Forest.Trees = rc.Trees
	cfg.Forest.MaxDepth = rc.MaxDepth
	cfg.Forest.MinLeafSize = rc.MinLeafSize
	cfg.Seed = rc.Seed
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return cfg
}

// maintenanceTasks are the periodic sweeps run by the data layer.
func (a *app) maintenanceTasks() []services.MaintenanceTask {
	tasks := []services.MaintenanceTask{
		{Name: "limiter_sweep", Run: func(context.Context) error {
			if n := a.limiter.Sweep(); n > 0 {
				a.logger.Debug().Int("removed", n).Msg("Pruned idle limiter keys")
			}
			return nil
		}},
		{Name: "batch_sweep", Run: func(context.Context) error {
			if n := a.service.SweepBatches(); n > 0 {
				a.logger.Debug().Int("removed", n).Msg("Swept expired batches")
			}
			return nil
		}},
	}
	if m, ok := a.store.(store.Maintainer); ok {
		tasks = append(tasks, services.MaintenanceTask{Name: "store_gc", Run: m.Maintain})
	}
	return tasks
}

// register adds the long-running services to the tree.
func (a *app) register(tree *supervisor.SupervisorTree) *http.Server {
	tree.AddDataService(services.NewMaintenanceService(a.cfg.MaintenanceInterval(), a.maintenanceTasks(), a.logger))
	tree.AddMessagingService(events.NewInvalidationListener(a.bus, a.service, a.logger))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, a.cfg.Server.Timeout))
	return server
}

// close releases resources in reverse wiring order.
func (a *app) close(ctx context.Context) {
	var errs []error
	if a.bus != nil {
		errs = append(errs, a.bus.Close())
	}
	if a.embedded != nil {
		errs = append(errs, a.embedded.Shutdown(ctx))
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Error().Err(err).Msg("Error releasing resources")
	}
}
