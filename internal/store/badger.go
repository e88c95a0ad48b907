// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trackpool/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	poolKeyPrefix     = "pool:"     // pool:<user>:<seq> -> Track
	poolIndexPrefix   = "poolidx:"  // poolidx:<user>:<trackKey> -> seq
	poolSeqPrefix     = "poolseq:"  // poolseq:<user> -> next seq
	likedKeyPrefix    = "liked:"    // liked:<user>:<trackKey> -> Track
	feedbackKeyPrefix = "feedback:" // feedback:<user>:<trackKey> -> Feedback
)

const (
	maxConflictRetry = 10
	valueLogGCRatio  = 0.5
)

// BadgerStore implements Store on BadgerDB.
//
// Pool entries are keyed by a big-endian per-user sequence number so a
// prefix scan returns them in insertion order.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// OpenBadger opens (or creates) a database at path.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func OpenBadger(path string, logger zerolog.Logger) (*BadgerStore, error) {
	logger = logger.With().Str("component", "store").Logger()
	opts := badger.DefaultOptions(path).WithLogger(newBadgerLogger(logger))
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("Badger store opened")
	return NewBadgerStore(db, logger), nil
}

// NewBadgerStore wraps an already opened database.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewBadgerStore(db *badger.DB, logger zerolog.Logger) *BadgerStore {
	return &BadgerStore{db: db, logger: logger}
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Maintain runs one value log garbage collection pass.
func (s *BadgerStore) Maintain(_ context.Context) error {
	err := s.db.RunValueLogGC(valueLogGCRatio)
	if err == nil || errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
		return nil
	}
	return fmt.Errorf("value log gc: %w", err)
}

// PoolKeys returns the identity keys of the user's pool.
func (s *BadgerStore) PoolKeys(_ context.Context, userID string) (map[models.TrackKey]struct{}, error) {
	keys := make(map[models.TrackKey]struct{})
	prefix := []byte(poolIndexPrefix + userSegment(userID))

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys[models.TrackKey(it.Item().Key()[len(prefix):])] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list pool keys: %w", err)
	}
	return keys, nil
}

// AddToPool appends unseen tracks in the given order.
func (s *BadgerStore) AddToPool(_ context.Context, userID string, tracks []models.Track) (int, error) {
	if len(tracks) == 0 {
		return 0, nil
	}
	seg := userSegment(userID)
	now := time.Now().UTC()

	var added int
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		added = 0
		seqKey := []byte(poolSeqPrefix + seg)
		seq, err := readUint64(txn, seqKey)
		if err != nil {
			return err
		}

		seen := make(map[models.TrackKey]struct{}, len(tracks))
		for i := range tracks {
			tr := tracks[i]
			key := tr.Key()
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			idxKey := []byte(poolIndexPrefix + seg + string(key))
			if _, err := txn.Get(idxKey); err == nil {
				continue
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check pool index: %w", err)
			}

			if tr.AddedAt.IsZero() {
				tr.AddedAt = now
			}
			data, err := json.Marshal(&tr)
			if err != nil {
				return fmt.Errorf("marshal track: %w", err)
			}

			seqBytes := encodeUint64(seq)
			if err := txn.Set(append([]byte(poolKeyPrefix+seg), seqBytes...), data); err != nil {
				return fmt.Errorf("set pool entry: %w", err)
			}
			if err := txn.Set(idxKey, seqBytes); err != nil {
				return fmt.Errorf("set pool index: %w", err)
			}
			seq++
			added++
		}
		if added == 0 {
			return nil
		}
		return txn.Set(seqKey, encodeUint64(seq))
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Pool returns the user's pool in insertion order.
func (s *BadgerStore) Pool(_ context.Context, userID string) ([]models.Track, error) {
	var tracks []models.Track
	err := s.scan(poolKeyPrefix+userSegment(userID), func(val []byte) error {
		var tr models.Track
		if err := json.Unmarshal(val, &tr); err != nil {
			return fmt.Errorf("unmarshal pool entry: %w", err)
		}
		tracks = append(tracks, tr)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list pool: %w", err)
	}
	return tracks, nil
}

// PoolSize counts pool index entries without loading values.
func (s *BadgerStore) PoolSize(ctx context.Context, userID string) (int, error) {
	keys, err := s.PoolKeys(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// UpsertLiked writes tracks into the liked set.
func (s *BadgerStore) UpsertLiked(_ context.Context, userID string, tracks []models.Track) (int, error) {
	seg := userSegment(userID)
	now := time.Now().UTC()

	var written int
	err := s.updateWithRetry(func(txn *badger.Txn) error {
		written = 0
		for i := range tracks {
			tr := tracks[i]
			key := tr.Key()
			if key == "" {
				continue
			}
			dbKey := []byte(likedKeyPrefix + seg + string(key))

			item, err := txn.Get(dbKey)
			switch {
			case err == nil:
				var existing models.Track
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &existing)
				}); err != nil {
					return fmt.Errorf("unmarshal liked entry: %w", err)
				}
				tr.AddedAt = existing.AddedAt
				tr.Source = existing.Source
			case errors.Is(err, badger.ErrKeyNotFound):
				if tr.AddedAt.IsZero() {
					tr.AddedAt = now
				}
			default:
				return fmt.Errorf("get liked entry: %w", err)
			}

			data, err := json.Marshal(&tr)
			if err != nil {
				return fmt.Errorf("marshal liked entry: %w", err)
			}
			if err := txn.Set(dbKey, data); err != nil {
				return fmt.Errorf("set liked entry: %w", err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// Liked returns the liked set ordered by key.
func (s *BadgerStore) Liked(_ context.Context, userID string) ([]models.Track, error) {
	var tracks []models.Track
	err := s.scan(likedKeyPrefix+userSegment(userID), func(val []byte) error {
		var tr models.Track
		if err := json.Unmarshal(val, &tr); err != nil {
			return fmt.Errorf("unmarshal liked entry: %w", err)
		}
		tracks = append(tracks, tr)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list liked: %w", err)
	}
	return tracks, nil
}

// UpsertFeedback replaces the user's label for the track.
func (s *BadgerStore) UpsertFeedback(_ context.Context, fb *models.Feedback) error {
	key := fb.Key()
	if key == "" {
		return ErrEmptyKey
	}
	if fb.UpdatedAt.IsZero() {
		fb.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	return s.updateWithRetry(func(txn *badger.Txn) error {
		return txn.Set([]byte(feedbackKeyPrefix+userSegment(fb.UserID)+string(key)), data)
	})
}

// Feedback returns the user's labels ordered by key.
func (s *BadgerStore) Feedback(_ context.Context, userID string) ([]models.Feedback, error) {
	var labels []models.Feedback
	err := s.scan(feedbackKeyPrefix+userSegment(userID), func(val []byte) error {
		var fb models.Feedback
		if err := json.Unmarshal(val, &fb); err != nil {
			return fmt.Errorf("unmarshal feedback: %w", err)
		}
		labels = append(labels, fb)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return labels, nil
}

func (s *BadgerStore) scan(prefix string, fn func(val []byte) error) error {
	p := []byte(prefix)
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = p
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

// updateWithRetry reruns fn when a concurrent transaction touched the same keys.
func (s *BadgerStore) updateWithRetry(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetry; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.logger.Debug().Int("attempt", attempt+1).Msg("Badger transaction conflict, retrying")
	}
	return fmt.Errorf("update after %d conflicts: %w", maxConflictRetry, err)
}

func readUint64(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", key, err)
	}
	var v uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt counter %s", key)
		}
		v = binary.BigEndian.Uint64(val)
		return nil
	})
	return v, err
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct {
	logger zerolog.Logger
}

//nolint:gocritic // zerolog.Logger is designed to be passed by value
func newBadgerLogger(logger zerolog.Logger) *badgerLogger {
	return &badgerLogger{logger: logger.With().Str("subsystem", "badger").Logger()}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Trace().Msgf(format, args...)
}
