// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

/*
Package supervisor provides process supervision for Trackpool using suture v4.

Services are grouped into three layers for failure isolation:

	RootSupervisor ("trackpool")
	├── DataSupervisor ("data-layer")
	│   └── MaintenanceService (limiter, batch cache and store sweeps)
	├── MessagingSupervisor ("messaging-layer")
	│   └── events.InvalidationListener
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services restart with backoff. Supervisor events are logged through
sutureslog, which main points at the zerolog adapter:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	errCh := tree.ServeBackground(ctx)

After ctx is cancelled, UnstoppedServiceReport lists services that did not
stop within ShutdownTimeout.
*/
package supervisor
