// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

// Package store persists track pools, liked sets and feedback labels.
//
// Two backends implement Store:
//
//   - BadgerStore: durable, embedded BadgerDB (default, store.backend=badger)
//   - MemoryStore: process memory, for tests and ephemeral deployments
//
// BadgerDB key layout (user IDs are length-prefixed, see userSegment):
//
//	pool:<user>:<seq>           Track JSON, seq is big-endian so scans keep insertion order
//	poolidx:<user>:<trackKey>   seq of the pooled track, used for dedup
//	poolseq:<user>              next sequence number
//	liked:<user>:<trackKey>     Track JSON
//	feedback:<user>:<trackKey>  Feedback JSON
//
// AddToPool checks the index inside the same transaction that writes the
// entry, so a track key is pooled at most once per user.
package store
