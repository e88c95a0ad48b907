// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trackpool/internal/config"
	"github.com/tomtom215/trackpool/internal/models"
)

// createTestBadgerStore opens a BadgerStore in a temporary directory.
func createTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}
	s := NewBadgerStore(db, zerolog.Nop())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("badger", func(t *testing.T) { fn(t, createTestBadgerStore(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
}

func track(name, artist string, source models.SourceTag) models.Track {
	return models.Track{TrackName: name, Artist: artist, Source: source}
}

func TestStore_AddToPoolKeepsInsertionOrderAndDedups(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		added, err := s.AddToPool(ctx, "u1", []models.Track{
			track("Teardrop", "Massive Attack", models.SourcePrimaryLiked),
			track("Roads", "Portishead", models.SourceArtistSimilarity),
			track("teardrop ", "MASSIVE ATTACK", models.SourceGenreSimilarity),
			track("", "Nobody", models.SourceGenreSimilarity),
		})
		if err != nil {
			t.Fatalf("AddToPool() error = %v", err)
		}
		if added != 2 {
			t.Errorf("added = %d, want 2", added)
		}

		// Sequence numbers above 255 must still sort correctly.
		batch := make([]models.Track, 300)
		for i := range batch {
			batch[i] = track(fmt.Sprintf("Song %03d", i), "Band", models.SourceGenreSimilarity)
		}
		batch = append(batch, track("Roads", "Portishead", models.SourceGenreSimilarity))
		added, err = s.AddToPool(ctx, "u1", batch)
		if err != nil {
			t.Fatalf("AddToPool() error = %v", err)
		}
		if added != 300 {
			t.Errorf("added = %d, want 300", added)
		}

		pool, err := s.Pool(ctx, "u1")
		if err != nil {
			t.Fatalf("Pool() error = %v", err)
		}
		if len(pool) != 302 {
			t.Fatalf("pool size = %d, want 302", len(pool))
		}
		if pool[0].TrackName != "Teardrop" || pool[1].TrackName != "Roads" {
			t.Errorf("unexpected head: %q, %q", pool[0].TrackName, pool[1].TrackName)
		}
		for i := 0; i < 300; i++ {
			if want := fmt.Sprintf("Song %03d", i); pool[i+2].TrackName != want {
				t.Fatalf("pool[%d] = %q, want %q", i+2, pool[i+2].TrackName, want)
			}
		}
		if pool[0].AddedAt.IsZero() {
			t.Error("AddedAt should be stamped")
		}

		size, err := s.PoolSize(ctx, "u1")
		if err != nil || size != 302 {
			t.Errorf("PoolSize() = %d, %v", size, err)
		}
	})
}

func TestStore_PoolKeys(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, _ = s.AddToPool(ctx, "u1", []models.Track{track("A", "X", models.SourcePrimaryLiked)})

		keys, err := s.PoolKeys(ctx, "u1")
		if err != nil {
			t.Fatalf("PoolKeys() error = %v", err)
		}
		if _, ok := keys[models.NewTrackKey("a", "x")]; !ok || len(keys) != 1 {
			t.Errorf("unexpected keys: %v", keys)
		}

		empty, err := s.PoolKeys(ctx, "nobody")
		if err != nil || len(empty) != 0 {
			t.Errorf("expected empty key set, got %v, %v", empty, err)
		}
	})
}

func TestStore_UsersAreIsolated(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		// "a" must not see "a:b"'s rows through a shared prefix.
		_, _ = s.AddToPool(ctx, "a:b", []models.Track{track("One", "X", models.SourcePrimaryLiked)})
		_, _ = s.AddToPool(ctx, "a", []models.Track{track("Two", "Y", models.SourcePrimaryLiked)})

		pool, err := s.Pool(ctx, "a")
		if err != nil {
			t.Fatalf("Pool() error = %v", err)
		}
		if len(pool) != 1 || pool[0].TrackName != "Two" {
			t.Errorf("user pools leaked: %+v", pool)
		}
	})
}

func TestStore_UpsertLiked(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		first := track("Song", "Band", models.SourcePrimaryLiked)
		first.AddedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		n, err := s.UpsertLiked(ctx, "u1", []models.Track{first, track("", "Skip", models.SourcePrimaryLiked)})
		if err != nil || n != 1 {
			t.Fatalf("UpsertLiked() = %d, %v", n, err)
		}

		update := track("song", "band", models.SourceUserLiked)
		update.Album = "LP"
		if _, err := s.UpsertLiked(ctx, "u1", []models.Track{update}); err != nil {
			t.Fatalf("UpsertLiked() error = %v", err)
		}

		liked, err := s.Liked(ctx, "u1")
		if err != nil {
			t.Fatalf("Liked() error = %v", err)
		}
		if len(liked) != 1 {
			t.Fatalf("expected 1 liked track, got %d", len(liked))
		}
		if liked[0].Album != "LP" {
			t.Errorf("metadata not updated: %+v", liked[0])
		}
		if liked[0].Source != models.SourcePrimaryLiked {
			t.Errorf("Source = %q, want original primary_liked", liked[0].Source)
		}
		if !liked[0].AddedAt.Equal(first.AddedAt) {
			t.Errorf("AddedAt = %v, want original %v", liked[0].AddedAt, first.AddedAt)
		}
	})
}

func TestStore_UpsertFeedbackOverwrites(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		fb := &models.Feedback{UserID: "u1", TrackName: "Song", Artist: "Band", Liked: true}
		if err := s.UpsertFeedback(ctx, fb); err != nil {
			t.Fatalf("UpsertFeedback() error = %v", err)
		}
		if fb.UpdatedAt.IsZero() {
			t.Error("UpdatedAt should be stamped")
		}
		if err := s.UpsertFeedback(ctx, &models.Feedback{UserID: "u1", TrackName: "SONG", Artist: "band", Liked: false}); err != nil {
			t.Fatalf("UpsertFeedback() error = %v", err)
		}

		labels, err := s.Feedback(ctx, "u1")
		if err != nil {
			t.Fatalf("Feedback() error = %v", err)
		}
		if len(labels) != 1 || labels[0].Liked {
			t.Errorf("expected a single skipped label, got %+v", labels)
		}

		err = s.UpsertFeedback(ctx, &models.Feedback{UserID: "u1", TrackName: " ", Artist: "Band"})
		if !errors.Is(err, ErrEmptyKey) {
			t.Errorf("expected ErrEmptyKey, got %v", err)
		}
	})
}

func TestStore_ConcurrentAddToPool(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tracks := make([]models.Track, 20)
				for i := range tracks {
					tracks[i] = track(fmt.Sprintf("Song %d", i), "Band", models.SourceGenreSimilarity)
				}
				if _, err := s.AddToPool(ctx, "u1", tracks); err != nil {
					t.Errorf("AddToPool() error = %v", err)
				}
			}()
		}
		wg.Wait()

		pool, err := s.Pool(ctx, "u1")
		if err != nil {
			t.Fatalf("Pool() error = %v", err)
		}
		if len(pool) != 20 {
			t.Errorf("expected 20 unique tracks, got %d", len(pool))
		}
	})
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	_, _ = s.AddToPool(ctx, "u1", []models.Track{
		track("First", "A", models.SourcePrimaryLiked),
		track("Second", "B", models.SourcePrimaryLiked),
	})
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = OpenBadger(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	added, err := s.AddToPool(ctx, "u1", []models.Track{track("Third", "C", models.SourcePrimaryLiked)})
	if err != nil || added != 1 {
		t.Fatalf("AddToPool() = %d, %v", added, err)
	}
	pool, err := s.Pool(ctx, "u1")
	if err != nil {
		t.Fatalf("Pool() error = %v", err)
	}
	got := []string{}
	for _, tr := range pool {
		got = append(got, tr.TrackName)
	}
	if fmt.Sprint(got) != "[First Second Third]" {
		t.Errorf("pool order after reopen = %v", got)
	}

	if err := s.Maintain(ctx); err != nil {
		t.Errorf("Maintain() error = %v", err)
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(&config.StoreConfig{Backend: "memory"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", s)
	}

	s, err = Open(&config.StoreConfig{Backend: "badger", Path: t.TempDir()}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open(badger) error = %v", err)
	}
	if _, ok := s.(Maintainer); !ok {
		t.Error("badger store should implement Maintainer")
	}
	_ = s.Close()

	if _, err := Open(&config.StoreConfig{Backend: "postgres"}, zerolog.Nop()); err == nil {
		t.Error("expected error for unknown backend")
	}
}
