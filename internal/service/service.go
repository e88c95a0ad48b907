// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trackpool/internal/cache"
	"github.com/tomtom215/trackpool/internal/config"
	"github.com/tomtom215/trackpool/internal/expand"
	"github.com/tomtom215/trackpool/internal/logging"
	"github.com/tomtom215/trackpool/internal/metrics"
	"github.com/tomtom215/trackpool/internal/models"
	"github.com/tomtom215/trackpool/internal/recommend"
	"github.com/tomtom215/trackpool/internal/store"
)

// Invalidation reasons, shared with the event payload.
const (
	ReasonImport   = "import"
	ReasonExpand   = "expand"
	ReasonFeedback = "feedback"
	ReasonLogout   = "logout"
)

// Expander grows a user's pool.
type Expander interface {
	Expand(ctx context.Context, userID string, seedArtists []string, capPerCall int) (*expand.Result, error)
}

// Ranker orders a user's pool.
type Ranker interface {
	Rank(ctx context.Context, in recommend.Input) *recommend.Result
}

// Notifier tells other replicas that a user's pool or labels changed.
type Notifier interface {
	PoolMutated(ctx context.Context, userID, reason string) error
}

// Batch is one page of ranked tracks.
type Batch = cache.Batch[recommend.ScoredTrack]

// Service implements the caller operations on top of the store, the
// expansion and ranking engines, and the batch cache.
type Service struct {
	store    store.Store
	expander Expander
	ranker   Ranker
	batches  *cache.BatchCache[recommend.ScoredTrack]
	notifier Notifier
	logger   zerolog.Logger
}

// New wires a Service. Call SetNotifier once the event bus exists.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(st store.Store, expander Expander, ranker Ranker, cfg *config.BatchConfig, logger zerolog.Logger) *Service {
	s := &Service{
		store:    st,
		expander: expander,
		ranker:   ranker,
		logger:   logger.With().Str("component", "service").Logger(),
	}
	s.batches = cache.NewBatchCache(s.loadRanked, cfg.PageSize, cfg.TTL, cfg.MaxUsers)
	return s
}

// SetNotifier sets where mutation events are published. nil disables publishing.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// ImportResult reports ImportLiked.
type ImportResult struct {
	Imported  int `json:"imported"`
	PoolAdded int `json:"pool_added"`
}

// ImportLiked adds library tracks to the liked set and the pool.
func (s *Service) ImportLiked(ctx context.Context, userID string, tracks []models.Track) (*ImportResult, error) {
	clean := make([]models.Track, 0, len(tracks))
	for i := range tracks {
		tr := tracks[i]
		tr.SanitizeFields()
		tr.Source = models.SourcePrimaryLiked
		tr.ArtistSeed, tr.GenreSeed = "", ""
		if tr.Key() == "" {
			continue
		}
		clean = append(clean, tr)
	}

	imported, err := s.store.UpsertLiked(ctx, userID, clean)
	if err != nil {
		return nil, s.storageError(ctx, "upsert_liked", err)
	}
	added, err := s.store.AddToPool(ctx, userID, clean)
	if err != nil {
		return nil, s.storageError(ctx, "add_to_pool", err)
	}

	s.mutated(ctx, userID, ReasonImport)
	s.log(ctx).Info().Int("imported", imported).Int("pool_added", added).Msg("Liked tracks imported")
	return &ImportResult{Imported: imported, PoolAdded: added}, nil
}

// ExpandResult reports Expand.
type ExpandResult struct {
	ExpandedAdded int  `json:"expanded_added"`
	LikedImported int  `json:"liked_imported"`
	TotalRows     int  `json:"total_rows"`
	Partial       bool `json:"partial"`
}

// Expand folds liked feedback into the liked set, copies the liked set into
// the pool and grows the pool from the liked artists.
func (s *Service) Expand(ctx context.Context, userID string) (*ExpandResult, error) {
	labels, err := s.store.Feedback(ctx, userID)
	if err != nil {
		return nil, s.storageError(ctx, "list_feedback", err)
	}
	var likedFeedback []models.Track
	for i := range labels {
		if labels[i].Liked {
			likedFeedback = append(likedFeedback, labels[i].AsTrack(models.SourceUserLiked))
		}
	}
	if len(likedFeedback) > 0 {
		if _, err := s.store.UpsertLiked(ctx, userID, likedFeedback); err != nil {
			return nil, s.storageError(ctx, "upsert_liked", err)
		}
	}

	liked, err := s.store.Liked(ctx, userID)
	if err != nil {
		return nil, s.storageError(ctx, "list_liked", err)
	}
	if len(liked) == 0 {
		return nil, models.ErrInsufficientSeedData
	}

	likedImported, err := s.store.AddToPool(ctx, userID, liked)
	if err != nil {
		return nil, s.storageError(ctx, "add_to_pool", err)
	}

	seeds := make([]string, 0, len(liked))
	for i := range liked {
		seeds = append(seeds, liked[i].Artist)
	}

	res, err := s.expander.Expand(ctx, userID, seeds, 0)
	if err != nil {
		if likedImported > 0 {
			// The pool already grew by the liked set.
			s.mutated(ctx, userID, ReasonExpand)
		}
		if errors.Is(err, models.ErrInsufficientSeedData) {
			return nil, err
		}
		return nil, s.storageError(ctx, "expand", err)
	}

	s.mutated(ctx, userID, ReasonExpand)
	return &ExpandResult{
		ExpandedAdded: res.Added,
		LikedImported: likedImported,
		TotalRows:     res.Total,
		Partial:       res.Partial,
	}, nil
}

// GetRecommendations ranks the pool afresh and returns the first page.
func (s *Service) GetRecommendations(ctx context.Context, userID string) (*Batch, error) {
	return s.batches.Generate(ctx, userID)
}

// NextBatch returns the next page, wrapping at the end.
func (s *Service) NextBatch(ctx context.Context, userID string) (*Batch, error) {
	return s.batches.Next(ctx, userID)
}

// PreviousBatch returns the page before the last one served.
func (s *Service) PreviousBatch(ctx context.Context, userID string) (*Batch, error) {
	return s.batches.Previous(ctx, userID)
}

// FeedbackInput is one like or skip.
type FeedbackInput struct {
	TrackName   string
	Artist      string
	Album       string
	ReleaseYear string
	ExternalID  string
	Liked       bool
}

// SubmitFeedback records a label. A like also joins the liked set and the
// pool, so its artist seeds the next expansion.
func (s *Service) SubmitFeedback(ctx context.Context, userID string, in FeedbackInput) (*models.Feedback, error) {
	fb := &models.Feedback{
		UserID:      userID,
		TrackName:   models.Sanitize(in.TrackName),
		Artist:      models.Sanitize(in.Artist),
		Album:       models.Sanitize(in.Album),
		ReleaseYear: models.Sanitize(in.ReleaseYear),
		ExternalID:  models.Sanitize(in.ExternalID),
		Liked:       in.Liked,
	}
	if fb.Key() == "" {
		return nil, store.ErrEmptyKey
	}

	if err := s.store.UpsertFeedback(ctx, fb); err != nil {
		return nil, s.storageError(ctx, "upsert_feedback", err)
	}
	if fb.Liked {
		tr := fb.AsTrack(models.SourceUserLiked)
		if _, err := s.store.UpsertLiked(ctx, userID, []models.Track{tr}); err != nil {
			return nil, s.storageError(ctx, "upsert_liked", err)
		}
		if _, err := s.store.AddToPool(ctx, userID, []models.Track{tr}); err != nil {
			return nil, s.storageError(ctx, "add_to_pool", err)
		}
	}

	s.mutated(ctx, userID, ReasonFeedback)
	s.log(ctx).Debug().Bool("liked", fb.Liked).Str("track_key", string(fb.Key())).Msg("Feedback recorded")
	return fb, nil
}

// Stats summarizes a user's pool and labels.
func (s *Service) Stats(ctx context.Context, userID string) (*models.Stats, error) {
	size, err := s.store.PoolSize(ctx, userID)
	if err != nil {
		return nil, s.storageError(ctx, "pool_size", err)
	}
	liked, err := s.store.Liked(ctx, userID)
	if err != nil {
		return nil, s.storageError(ctx, "list_liked", err)
	}
	labels, err := s.store.Feedback(ctx, userID)
	if err != nil {
		return nil, s.storageError(ctx, "list_feedback", err)
	}

	stats := &models.Stats{
		TotalSongs:    size,
		TotalLiked:    len(liked),
		TotalFeedback: len(labels),
	}
	for i := range labels {
		if labels[i].Liked {
			stats.FeedbackLiked++
		} else {
			stats.FeedbackSkipped++
		}
	}
	return stats, nil
}

// Logout drops the user's cached batches everywhere.
func (s *Service) Logout(ctx context.Context, userID string) {
	s.mutated(ctx, userID, ReasonLogout)
}

// InvalidateLocal drops the user's cached batches on this instance only.
// It is used for mutation events published by other replicas.
func (s *Service) InvalidateLocal(userID, reason string) bool {
	dropped := s.batches.Invalidate(userID)
	metrics.RecordBatchInvalidation(reason)
	return dropped
}

// SweepBatches removes expired batch state.
func (s *Service) SweepBatches() int {
	return s.batches.Sweep()
}

// loadRanked is the BatchCache loader.
func (s *Service) loadRanked(ctx context.Context, userID string) ([]recommend.ScoredTrack, string, error) {
	liked, err := s.store.Liked(ctx, userID)
	if err != nil {
		return nil, "", s.storageError(ctx, "list_liked", err)
	}
	if len(liked) == 0 {
		return nil, "", models.ErrInsufficientSeedData
	}
	pool, err := s.store.Pool(ctx, userID)
	if err != nil {
		return nil, "", s.storageError(ctx, "list_pool", err)
	}
	if len(pool) == 0 {
		return nil, "", models.ErrInsufficientSeedData
	}
	labels, err := s.store.Feedback(ctx, userID)
	if err != nil {
		return nil, "", s.storageError(ctx, "list_feedback", err)
	}

	res := s.ranker.Rank(ctx, recommend.Input{
		UserID:     userID,
		Pool:       pool,
		Labels:     labels,
		LikedCount: len(liked),
	})
	return res.Tracks, res.Mode.String(), nil
}

// mutated invalidates locally, then tells the other replicas.
// A failed publish is logged; the local state is already consistent.
func (s *Service) mutated(ctx context.Context, userID, reason string) {
	s.InvalidateLocal(userID, reason)
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PoolMutated(ctx, userID, reason); err != nil {
		s.log(ctx).Warn().Err(err).Str("reason", reason).Msg("Failed to publish pool mutation")
	}
}

// storageError logs the backend error and hides it behind ErrTemporarilyUnavailable.
func (s *Service) storageError(ctx context.Context, op string, err error) error {
	metrics.RecordStoreError(op)
	s.log(ctx).Error().Err(err).Str("operation", op).Msg("Storage operation failed")
	return fmt.Errorf("%s: %w", op, models.ErrTemporarilyUnavailable)
}

func (s *Service) log(ctx context.Context) *zerolog.Logger {
	logCtx := s.logger.With()
	if id := logging.RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	if id := logging.UserIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("user_id", id)
	}
	logger := logCtx.Logger()
	return &logger
}
