// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

/*
Package middleware provides HTTP middleware shared by the API router.

  - RequestID: request and correlation IDs for logging.Ctx and the X-Request-ID header
  - PrometheusMetrics: request count, latency and in-flight gauge keyed by chi route pattern

Both are standard func(http.Handler) http.Handler and are installed with chi's r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
