// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/trackpool/internal/metrics"
	"github.com/tomtom215/trackpool/internal/models"
)

// LimitError is returned by CheckOrFail when a key is over budget.
// It matches models.ErrRateLimitExceeded with errors.Is.
type LimitError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s for %q: retry after %s", models.ErrRateLimitExceeded, e.Key, e.RetryAfter.Round(time.Millisecond))
}

func (e *LimitError) Unwrap() error {
	return models.ErrRateLimitExceeded
}

// window holds the admitted call times for one key, oldest first.
type window struct {
	mu    sync.Mutex
	times []time.Time
	span  time.Duration // last window passed for this key, used by Sweep
	dead  bool          // set by Sweep once removed from the map
}

// prune drops timestamps at or before cutoff. Caller must hold w.mu.
func (w *window) prune(cutoff time.Time) {
	i := 0
	for i < len(w.times) && !w.times[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.times = append(w.times[:0], w.times[i:]...)
	}
}

// Limiter is a keyed sliding-window rate limiter.
//
// Each key keeps a FIFO of admission times. A call is admitted when fewer
// than maxRequests admissions fall inside the trailing window. Keys are
// independent: contention on one key never blocks another.
type Limiter struct {
	mu      sync.RWMutex
	windows map[string]*window

	// now is replaceable in tests.
	now func() time.Time
}

// New creates an empty limiter.
func New() *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (l *Limiter) get(key string) *window {
	l.mu.RLock()
	w, ok := l.windows[key]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok = l.windows[key]; !ok {
		w = &window{}
		l.windows[key] = w
	}
	return w
}

// lockWindow returns the live window for key with its lock held. A window
// swept between lookup and lock is dead and must not be written to.
func (l *Limiter) lockWindow(key string) *window {
	for {
		w := l.get(key)
		w.mu.Lock()
		if !w.dead {
			return w
		}
		w.mu.Unlock()
	}
}

// Allow admits and records one call for key if the window has room.
// The prune, check and record happen under one lock.
func (l *Limiter) Allow(key string, maxRequests int, span time.Duration) bool {
	if maxRequests <= 0 {
		return false
	}
	w := l.lockWindow(key)
	defer w.mu.Unlock()

	now := l.now()
	w.span = span
	w.prune(now.Add(-span))
	if len(w.times) >= maxRequests {
		return false
	}
	w.times = append(w.times, now)
	return true
}

// CheckOrFail is Allow returning a *LimitError on denial.
func (l *Limiter) CheckOrFail(key string, maxRequests int, span time.Duration) error {
	if l.Allow(key, maxRequests, span) {
		return nil
	}
	metrics.RecordLimiterDenied(key)
	return &LimitError{Key: key, RetryAfter: l.WaitTime(key, maxRequests, span)}
}

// WaitTime returns how long until key has room for another call.
// It is 0 when the key is unknown or already has room.
func (l *Limiter) WaitTime(key string, maxRequests int, span time.Duration) time.Duration {
	l.mu.RLock()
	w, ok := l.windows[key]
	l.mu.RUnlock()
	if !ok {
		return 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dead {
		return 0
	}
	now := l.now()
	w.prune(now.Add(-span))
	if len(w.times) == 0 || len(w.times) < maxRequests {
		return 0
	}
	// The call that frees a slot is the one maxRequests back from the newest.
	oldest := w.times[len(w.times)-maxRequests]
	if wait := oldest.Add(span).Sub(now); wait > 0 {
		return wait
	}
	return 0
}

// Wait blocks until a call for key is admitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string, maxRequests int, span time.Duration) error {
	if maxRequests <= 0 {
		return fmt.Errorf("rate limit for %q: maxRequests must be positive", key)
	}
	start := l.now()
	for {
		if l.Allow(key, maxRequests, span) {
			metrics.RecordLimiterWait(key, l.now().Sub(start))
			return nil
		}
		wait := l.WaitTime(key, maxRequests, span)
		if wait <= 0 {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Sweep removes keys whose windows are empty or fully expired and
// returns how many were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, w := range l.windows {
		w.mu.Lock()
		w.prune(now.Add(-w.span))
		empty := len(w.times) == 0
		if empty {
			w.dead = true
		}
		w.mu.Unlock()
		if empty {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}
