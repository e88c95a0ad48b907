// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package cache

import (
	"sync"
	"testing"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	t.Parallel()

	k := NewKeyedMutex()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("user")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
	if k.Len() != 0 {
		t.Errorf("Len() = %d, idle keys should be released", k.Len())
	}
}

func TestKeyedMutex_DistinctKeys(t *testing.T) {
	t.Parallel()

	k := NewKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	if k.Len() != 2 {
		t.Errorf("Len() = %d, want 2", k.Len())
	}
	unlockA()
	unlockA()
	unlockB()
	if k.Len() != 0 {
		t.Errorf("Len() = %d, want 0", k.Len())
	}
}
