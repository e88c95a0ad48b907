// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trackpool/internal/config"
	"github.com/tomtom215/trackpool/internal/models"
)

// Store persists per-user pools, liked sets and feedback labels.
type Store interface {
	// PoolKeys returns the identity keys of every track in the user's pool.
	PoolKeys(ctx context.Context, userID string) (map[models.TrackKey]struct{}, error)

	// AddToPool appends tracks whose key is not already pooled and returns how many were added.
	// Tracks with an empty key are skipped.
	AddToPool(ctx context.Context, userID string, tracks []models.Track) (int, error)

	// Pool returns the user's pool in insertion order.
	Pool(ctx context.Context, userID string) ([]models.Track, error)

	// PoolSize returns the number of pooled tracks.
	PoolSize(ctx context.Context, userID string) (int, error)

	// UpsertLiked writes tracks into the liked set, keeping the AddedAt and
	// Source of an existing entry.
	UpsertLiked(ctx context.Context, userID string, tracks []models.Track) (int, error)

	// Liked returns the user's liked set.
	Liked(ctx context.Context, userID string) ([]models.Track, error)

	// UpsertFeedback stores the label for (fb.UserID, fb.Key()), replacing any earlier label.
	UpsertFeedback(ctx context.Context, fb *models.Feedback) error

	// Feedback returns every label the user has submitted.
	Feedback(ctx context.Context, userID string) ([]models.Feedback, error)

	// Close releases the backend.
	Close() error
}

// Maintainer is implemented by backends that need periodic housekeeping.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

// ErrEmptyKey is returned when a feedback label has no usable identity.
var ErrEmptyKey = errors.New("track name and artist are required")

// Open builds the backend selected by cfg.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Open(cfg *config.StoreConfig, logger zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "badger", "":
		return OpenBadger(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// userSegment encodes a user ID so that no ID is a key prefix of another.
func userSegment(userID string) string {
	return strconv.Itoa(len(userID)) + ":" + userID + ":"
}
