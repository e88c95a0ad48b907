// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

/*
Package cache provides the per-user batch cache and the keyed mutex used to
serialize per-user work.

# BatchCache

BatchCache[T] keeps, per user, an ordered list produced by a LoadFunc and a
cursor into it. Pages are served in fixed sizes:

  - Generate: reload, serve [0:pageSize]
  - Next: serve from the cursor, wrapping to 0 at the end
  - Previous: step back two pages from the cursor (floored at 0), serve one
  - Invalidate: drop the entry; returns false when nothing was cached

Entries expire after the TTL and the oldest entry is evicted when the user
limit is reached. Misses on Next and Previous fall through to Generate.

Usage:

	batches := cache.NewBatchCache(loadRanked, 10, time.Hour, 1000)
	page, err := batches.Next(ctx, userID)

# KeyedMutex

	unlock := locks.Lock(userID)
	defer unlock()

Lock entries are reference counted and disappear once released.
*/
package cache
