// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/trackpool/internal/metrics"
)

// LoadFunc produces the ordered items for a user together with a label for
// how they were ordered.
type LoadFunc[T any] func(ctx context.Context, userID string) (items []T, mode string, err error)

// Batch is one page served from a BatchCache.
type Batch[T any] struct {
	Items      []T    `json:"items"`
	Mode       string `json:"mode"`
	Offset     int    `json:"offset"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
}

type batchState[T any] struct {
	items     []T
	mode      string
	cursor    int
	createdAt time.Time
}

// BatchCache holds an ordered list and a cursor per user and serves it in
// fixed-size pages.
//
// Calls for the same user are serialized by a per-user lock. The entry table
// has its own short-held lock, so different users never wait on each other's
// loads.
type BatchCache[T any] struct {
	load     LoadFunc[T]
	pageSize int
	ttl      time.Duration
	maxUsers int

	locks *KeyedMutex

	mu      sync.Mutex
	entries map[string]*batchState[T]

	now func() time.Time
}

// NewBatchCache creates a cache. Non-positive pageSize, ttl or maxUsers use
// 10, one hour and 1000.
func NewBatchCache[T any](load LoadFunc[T], pageSize int, ttl time.Duration, maxUsers int) *BatchCache[T] {
	if pageSize <= 0 {
		pageSize = 10
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxUsers <= 0 {
		maxUsers = 1000
	}
	return &BatchCache[T]{
		load:     load,
		pageSize: pageSize,
		ttl:      ttl,
		maxUsers: maxUsers,
		locks:    NewKeyedMutex(),
		entries:  make(map[string]*batchState[T]),
		now:      time.Now,
	}
}

// PageSize returns the configured page size.
func (c *BatchCache[T]) PageSize() int {
	return c.pageSize
}

// Generate loads a fresh list for userID and returns its first page.
func (c *BatchCache[T]) Generate(ctx context.Context, userID string) (*Batch[T], error) {
	unlock := c.locks.Lock(userID)
	defer unlock()
	return c.generateLocked(ctx, userID)
}

// Next returns the page at the cursor, wrapping to the start once the list is
// exhausted. Without a live entry it behaves as Generate.
func (c *BatchCache[T]) Next(ctx context.Context, userID string) (*Batch[T], error) {
	unlock := c.locks.Lock(userID)
	defer unlock()

	state := c.lookup(userID)
	if state == nil {
		metrics.RecordBatchCacheMiss()
		return c.generateLocked(ctx, userID)
	}
	metrics.RecordBatchCacheHit()

	if state.cursor >= len(state.items) {
		state.cursor = 0
	}
	return c.page(state, state.cursor), nil
}

// Previous steps back one page from the page last served, stopping at the
// start of the list. Without a live entry it behaves as Generate.
func (c *BatchCache[T]) Previous(ctx context.Context, userID string) (*Batch[T], error) {
	unlock := c.locks.Lock(userID)
	defer unlock()

	state := c.lookup(userID)
	if state == nil {
		metrics.RecordBatchCacheMiss()
		return c.generateLocked(ctx, userID)
	}
	metrics.RecordBatchCacheHit()

	return c.page(state, max(0, state.cursor-2*c.pageSize)), nil
}

// Invalidate drops the user's entry and reports whether one existed.
// It waits for any in-flight call for the same user to finish first.
func (c *BatchCache[T]) Invalidate(userID string) bool {
	unlock := c.locks.Lock(userID)
	defer unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[userID]; !ok {
		return false
	}
	delete(c.entries, userID)
	metrics.SetBatchCacheEntries(len(c.entries))
	return true
}

// Sweep removes expired entries and returns how many were dropped.
func (c *BatchCache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for user, state := range c.entries {
		if now.Sub(state.createdAt) >= c.ttl {
			delete(c.entries, user)
			removed++
		}
	}
	metrics.SetBatchCacheEntries(len(c.entries))
	return removed
}

// Len returns the number of cached users.
func (c *BatchCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// generateLocked requires the caller to hold the user's lock.
func (c *BatchCache[T]) generateLocked(ctx context.Context, userID string) (*Batch[T], error) {
	items, mode, err := c.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	state := &batchState[T]{items: items, mode: mode, createdAt: c.now()}
	batch := c.page(state, 0)

	c.mu.Lock()
	if _, exists := c.entries[userID]; !exists && len(c.entries) >= c.maxUsers {
		c.evictOldestLocked()
	}
	c.entries[userID] = state
	metrics.SetBatchCacheEntries(len(c.entries))
	c.mu.Unlock()

	return batch, nil
}

// lookup returns the live entry for userID, dropping it if expired.
func (c *BatchCache[T]) lookup(userID string) *batchState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.entries[userID]
	if !ok {
		return nil
	}
	if c.now().Sub(state.createdAt) >= c.ttl {
		delete(c.entries, userID)
		metrics.SetBatchCacheEntries(len(c.entries))
		return nil
	}
	return state
}

// page slices one page starting at offset and moves the cursor to its end.
func (c *BatchCache[T]) page(state *batchState[T], offset int) *Batch[T] {
	total := len(state.items)
	offset = min(offset, total)
	end := min(offset+c.pageSize, total)
	state.cursor = end

	return &Batch[T]{
		Items:      append([]T(nil), state.items[offset:end]...),
		Mode:       state.mode,
		Offset:     offset,
		Total:      total,
		Page:       offset/c.pageSize + 1,
		TotalPages: (total + c.pageSize - 1) / c.pageSize,
	}
}

// evictOldestLocked requires c.mu.
func (c *BatchCache[T]) evictOldestLocked() {
	var (
		oldestUser string
		oldest     time.Time
		found      bool
	)
	for user, state := range c.entries {
		if !found || state.createdAt.Before(oldest) {
			oldestUser, oldest, found = user, state.createdAt, true
		}
	}
	if found {
		delete(c.entries, oldestUser)
	}
}
