// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

// Package service implements the per-user operations exposed by the API:
// importing liked tracks, expanding the pool, paging through ranked batches,
// recording feedback, stats and logout.
//
// Every mutating operation invalidates the user's batch cache on this
// instance before returning and then publishes a pool-mutated event through
// the Notifier so other replicas drop their copy too.
//
// Storage failures are logged with their cause and returned as
// models.ErrTemporarilyUnavailable. models.ErrInsufficientSeedData is
// returned when the user has nothing to seed from or rank.
package service
