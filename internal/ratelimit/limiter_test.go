// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/trackpool/internal/models"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter() (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New()
	l.now = clock.Now
	return l, clock
}

func TestAllow_SlidingWindow(t *testing.T) {
	l, clock := newTestLimiter()

	if !l.Allow("lastfm_api", 2, time.Second) {
		t.Fatal("first call should be admitted")
	}
	if !l.Allow("lastfm_api", 2, time.Second) {
		t.Fatal("second call should be admitted")
	}
	if l.Allow("lastfm_api", 2, time.Second) {
		t.Fatal("third call within the window should be denied")
	}

	clock.Advance(time.Second)
	if !l.Allow("lastfm_api", 2, time.Second) {
		t.Fatal("call after the window elapsed should be admitted")
	}
}

func TestAllow_WindowSlides(t *testing.T) {
	l, clock := newTestLimiter()

	l.Allow("k", 2, time.Second)
	clock.Advance(600 * time.Millisecond)
	l.Allow("k", 2, time.Second)

	clock.Advance(500 * time.Millisecond)
	// first call (t=0) left the window, second (t=600ms) is still inside
	if !l.Allow("k", 2, time.Second) {
		t.Fatal("expected room after the oldest call expired")
	}
	if l.Allow("k", 2, time.Second) {
		t.Fatal("expected denial with two calls inside the window")
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter()

	if !l.Allow("expand:alice", 1, time.Minute) {
		t.Fatal("alice should be admitted")
	}
	if !l.Allow("expand:bob", 1, time.Minute) {
		t.Fatal("bob should not be affected by alice")
	}
	if l.Allow("expand:alice", 1, time.Minute) {
		t.Fatal("alice should be denied")
	}
}

func TestAllow_NonPositiveMax(t *testing.T) {
	l, _ := newTestLimiter()
	if l.Allow("k", 0, time.Second) {
		t.Error("maxRequests 0 should never admit")
	}
}

func TestCheckOrFail(t *testing.T) {
	l, clock := newTestLimiter()

	if err := l.CheckOrFail("expand:u1", 1, 10*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clock.Advance(4 * time.Second)
	err := l.CheckOrFail("expand:u1", 1, 10*time.Second)
	if !errors.Is(err, models.ErrRateLimitExceeded) {
		t.Fatalf("expected ErrRateLimitExceeded, got %v", err)
	}

	var le *LimitError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LimitError, got %T", err)
	}
	if le.RetryAfter != 6*time.Second {
		t.Errorf("RetryAfter = %v, want 6s", le.RetryAfter)
	}
	if le.Key != "expand:u1" {
		t.Errorf("Key = %q", le.Key)
	}
}

func TestWaitTime(t *testing.T) {
	l, clock := newTestLimiter()

	if got := l.WaitTime("unknown", 2, time.Second); got != 0 {
		t.Errorf("unknown key wait = %v, want 0", got)
	}

	l.Allow("k", 2, time.Second)
	if got := l.WaitTime("k", 2, time.Second); got != 0 {
		t.Errorf("wait with room = %v, want 0", got)
	}

	clock.Advance(200 * time.Millisecond)
	l.Allow("k", 2, time.Second)
	if got := l.WaitTime("k", 2, time.Second); got != 800*time.Millisecond {
		t.Errorf("wait = %v, want 800ms", got)
	}

	clock.Advance(5 * time.Second)
	if got := l.WaitTime("k", 2, time.Second); got != 0 {
		t.Errorf("wait after expiry = %v, want 0", got)
	}
}

func TestWait_BlocksUntilAdmitted(t *testing.T) {
	l := New()
	span := 50 * time.Millisecond

	l.Allow("k", 1, span)
	start := time.Now()
	if err := l.Wait(context.Background(), "k", 1, span); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Wait returned after %v, expected to block for most of the window", elapsed)
	}
}

func TestWait_Cancelled(t *testing.T) {
	l := New()
	l.Allow("k", 1, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "k", 1, time.Hour); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestSweep(t *testing.T) {
	l, clock := newTestLimiter()

	l.Allow("short", 5, time.Second)
	l.Allow("long", 5, time.Hour)
	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}

	clock.Advance(2 * time.Second)
	if removed := l.Sweep(); removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestAllow_Concurrent(t *testing.T) {
	l := New()
	var admitted atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared", 10, time.Hour) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != 10 {
		t.Errorf("admitted %d concurrent calls, want exactly 10", got)
	}
}

func TestLockWindow_SkipsSweptWindow(t *testing.T) {
	l, _ := newTestLimiter()

	stale := l.get("k")
	if removed := l.Sweep(); removed != 1 {
		t.Fatalf("Sweep() removed %d, want 1", removed)
	}
	if !stale.dead {
		t.Fatal("swept window should be marked dead")
	}

	w := l.lockWindow("k")
	w.mu.Unlock()
	if w == stale {
		t.Fatal("lockWindow returned the swept window")
	}
	if l.WaitTime("k", 1, time.Second) != 0 {
		t.Error("fresh window should have room")
	}
}

func TestAllow_ConcurrentWithSweep(t *testing.T) {
	// A frozen clock means a key is only sweepable before its first
	// admission, so exactly one call per key may ever get through.
	l, _ := newTestLimiter()

	stop := make(chan struct{})
	var sweeper sync.WaitGroup
	sweeper.Add(1)
	go func() {
		defer sweeper.Done()
		for {
			select {
			case <-stop:
				return
			default:
				l.Sweep()
			}
		}
	}()

	for round := 0; round < 200; round++ {
		key := fmt.Sprintf("k%d", round)
		var admitted atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if l.Allow(key, 1, time.Hour) {
					admitted.Add(1)
				}
			}()
		}
		wg.Wait()
		if got := admitted.Load(); got != 1 {
			close(stop)
			sweeper.Wait()
			t.Fatalf("round %d: admitted %d calls, want 1", round, got)
		}
	}
	close(stop)
	sweeper.Wait()
}
