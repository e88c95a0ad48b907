// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/trackpool/internal/models"
)

type userData struct {
	pool      []models.Track
	poolIndex map[models.TrackKey]struct{}
	liked     map[models.TrackKey]models.Track
	feedback  map[models.TrackKey]models.Feedback
}

// MemoryStore implements Store in process memory. Data is lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*userData
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*userData)}
}

// user returns the record for userID, creating it. Caller must hold mu for writing.
func (s *MemoryStore) user(userID string) *userData {
	u, ok := s.users[userID]
	if !ok {
		u = &userData{
			poolIndex: make(map[models.TrackKey]struct{}),
			liked:     make(map[models.TrackKey]models.Track),
			feedback:  make(map[models.TrackKey]models.Feedback),
		}
		s.users[userID] = u
	}
	return u
}

func (s *MemoryStore) PoolKeys(_ context.Context, userID string) (map[models.TrackKey]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make(map[models.TrackKey]struct{})
	if u, ok := s.users[userID]; ok {
		for k := range u.poolIndex {
			keys[k] = struct{}{}
		}
	}
	return keys, nil
}

func (s *MemoryStore) AddToPool(_ context.Context, userID string, tracks []models.Track) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID)
	now := time.Now().UTC()
	added := 0
	for i := range tracks {
		tr := tracks[i]
		key := tr.Key()
		if key == "" {
			continue
		}
		if _, exists := u.poolIndex[key]; exists {
			continue
		}
		if tr.AddedAt.IsZero() {
			tr.AddedAt = now
		}
		u.pool = append(u.pool, tr)
		u.poolIndex[key] = struct{}{}
		added++
	}
	return added, nil
}

func (s *MemoryStore) Pool(_ context.Context, userID string) ([]models.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return append([]models.Track(nil), u.pool...), nil
}

func (s *MemoryStore) PoolSize(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[userID]; ok {
		return len(u.pool), nil
	}
	return 0, nil
}

func (s *MemoryStore) UpsertLiked(_ context.Context, userID string, tracks []models.Track) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID)
	now := time.Now().UTC()
	written := 0
	for i := range tracks {
		tr := tracks[i]
		key := tr.Key()
		if key == "" {
			continue
		}
		if existing, ok := u.liked[key]; ok {
			tr.AddedAt = existing.AddedAt
			tr.Source = existing.Source
		} else if tr.AddedAt.IsZero() {
			tr.AddedAt = now
		}
		u.liked[key] = tr
		written++
	}
	return written, nil
}

// Liked returns the liked set ordered by key, matching BadgerStore.
func (s *MemoryStore) Liked(_ context.Context, userID string) ([]models.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	keys := sortedKeys(u.liked)
	tracks := make([]models.Track, 0, len(keys))
	for _, k := range keys {
		tracks = append(tracks, u.liked[k])
	}
	return tracks, nil
}

func (s *MemoryStore) UpsertFeedback(_ context.Context, fb *models.Feedback) error {
	key := fb.Key()
	if key == "" {
		return ErrEmptyKey
	}
	if fb.UpdatedAt.IsZero() {
		fb.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(fb.UserID).feedback[key] = *fb
	return nil
}

func (s *MemoryStore) Feedback(_ context.Context, userID string) ([]models.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	keys := sortedKeys(u.feedback)
	labels := make([]models.Feedback, 0, len(keys))
	for _, k := range keys {
		labels = append(labels, u.feedback[k])
	}
	return labels, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func sortedKeys[V any](m map[models.TrackKey]V) []models.TrackKey {
	keys := make([]models.TrackKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
