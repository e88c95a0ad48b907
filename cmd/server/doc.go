// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

/*
Package main is the entry point for the Trackpool server.

Trackpool builds a per-user pool of candidate tracks from the user's liked
library and Last.fm similarity data, ranks the pool randomly or with a
classifier trained on like/skip feedback, and serves it in fixed-size pages.

# Application Architecture

	RootSupervisor ("trackpool")
	├── DataSupervisor ("data-layer")
	│   └── MaintenanceService (limiter, batch and store sweeps)
	├── MessagingSupervisor ("messaging-layer")
	│   └── InvalidationListener (cross-replica cache invalidation)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Initialization order:

 1. Configuration: koanf v2 with defaults, config.yaml and environment variables
 2. Logging: zerolog, with a slog adapter for suture
 3. Store: BadgerDB (default) or in-memory
 4. Limiter, Last.fm client, expansion and ranking engines, batch cache
 5. Events: in-process gochannel, external NATS or embedded NATS
 6. HTTP: chi router with CORS, httprate and Prometheus middleware

# Configuration

Commonly set environment variables:

	LASTFM_API_KEY     Last.fm API key
	STORE_BACKEND      badger or memory
	STORE_PATH         BadgerDB directory
	NATS_URL           external NATS server for multi-replica deployments
	NATS_EMBEDDED      start an in-process NATS server
	HTTP_PORT          listen port (default 8080)
	LOG_LEVEL          trace, debug, info, warn, error

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests, the listener unsubscribes, then the event bus, embedded
NATS server and store are closed in that order.
*/
package main
