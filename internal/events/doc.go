// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

// Package events propagates batch-cache invalidations between replicas.
//
// Every mutation of a user's pool, liked set or labels publishes a
// PoolMutated event on TopicPoolMutated. Each replica runs an
// InvalidationListener that drops its own cached batches for that user.
// Events from the publishing replica are recognised by origin and skipped,
// since that replica already invalidated synchronously.
//
// # Transports
//
//   - gochannel: in-process, used when no NATS URL is configured
//   - NATS core: watermill-nats with JetStream disabled; events are
//     fire-and-forget and a lost event only delays invalidation until the
//     batch TTL expires
//   - embedded NATS: nats-server started in-process for single-host setups
//
// The queue group prefix must stay empty in multi-replica deployments so
// every replica receives every event.
package events
