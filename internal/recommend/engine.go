// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trackpool/internal/metrics"
	"github.com/tomtom215/trackpool/internal/models"
	"github.com/tomtom215/trackpool/internal/recommend/algorithms"
)

// ClassifierFactory builds an untrained classifier. seed is drawn from the
// engine RNG so repeated rankings differ while staying reproducible.
type ClassifierFactory func(seed int64) algorithms.Classifier

// Engine orders a user's pool either randomly or by a classifier trained on
// the user's feedback. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	newClassifier ClassifierFactory

	// Random source for determinism (protected by rngMu for concurrent access)
	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewEngine creates a ranking engine backed by a random forest.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	forest := cfg.Forest
	return &Engine{
		config: cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
		newClassifier: func(seed int64) algorithms.Classifier {
			return algorithms.NewRandomForest(algorithms.RandomForestConfig{
				Trees:       forest.Trees,
				MaxDepth:    forest.MaxDepth,
				MinLeafSize: forest.MinLeafSize,
				Seed:        seed,
			})
		},
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for recommendation shuffling
	}, nil
}

// SetClassifierFactory replaces the classifier used for learned ranking.
func (e *Engine) SetClassifierFactory(f ClassifierFactory) {
	e.newClassifier = f
}

// Rank orders in.Pool. It never fails: any problem with learned ranking
// falls back to a random shuffle.
func (e *Engine) Rank(ctx context.Context, in Input) *Result {
	start := time.Now()
	logger := e.logger.With().Str("user_id", in.UserID).Logger()

	var result *Result
	if in.LikedCount < e.config.LikedThreshold {
		result = e.random(in.Pool)
	} else {
		var reason string
		var err error
		result, reason, err = e.learned(ctx, in)
		if result == nil {
			metrics.RecordRankingFallback(reason)
			event := logger.Info()
			if err != nil {
				event = logger.Warn().Err(err)
			}
			event.Str("reason", reason).Msg("Learned ranking unavailable, using random order")
			result = e.random(in.Pool)
		}
	}

	metrics.RecordRanking(result.Mode.String(), time.Since(start))
	logger.Debug().
		Str("mode", result.Mode.String()).
		Int("pool", len(in.Pool)).
		Int("ranked", len(result.Tracks)).
		Int("liked", in.LikedCount).
		Msg("Ranked pool")
	return result
}

// random returns a uniform shuffle of the full pool.
func (e *Engine) random(pool []models.Track) *Result {
	tracks := make([]ScoredTrack, len(pool))
	for i := range pool {
		tracks[i] = ScoredTrack{Track: pool[i]}
	}

	e.rngMu.Lock()
	e.rng.Shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})
	e.rngMu.Unlock()

	return &Result{Tracks: tracks, Mode: ModeRandom}
}

// learned returns nil with a fallback reason when learned ranking cannot be
// used. err is set only for genuine training or prediction failures.
func (e *Engine) learned(ctx context.Context, in Input) (result *Result, reason string, err error) {
	var hasLiked, hasSkipped bool
	for i := range in.Labels {
		if in.Labels[i].Liked {
			hasLiked = true
		} else {
			hasSkipped = true
		}
	}
	if !hasLiked || !hasSkipped {
		return nil, fallbackSingleClass, nil
	}

	pooled := make(map[models.TrackKey]*models.Track, len(in.Pool))
	for i := range in.Pool {
		pooled[in.Pool[i].Key()] = &in.Pool[i]
	}
	labeled := make(map[models.TrackKey]struct{}, len(in.Labels))
	for i := range in.Labels {
		labeled[in.Labels[i].Key()] = struct{}{}
	}

	var candidates []int
	for i := range in.Pool {
		if _, ok := labeled[in.Pool[i].Key()]; !ok {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil, fallbackNoCandidates, nil
	}
	if ctx.Err() != nil {
		return nil, fallbackCancelled, nil
	}

	enc := newFeatureEncoder(in.Pool)
	features := make([][]float64, len(in.Labels))
	labels := make([]bool, len(in.Labels))
	for i := range in.Labels {
		features[i] = enc.label(&in.Labels[i], pooled)
		labels[i] = in.Labels[i].Liked
	}

	probs, err := e.trainAndPredict(features, labels, in.Pool, candidates, enc)
	if err != nil {
		return nil, fallbackTraining, fmt.Errorf("%w: %w", models.ErrModelTrainingFailure, err)
	}

	tracks := make([]ScoredTrack, len(candidates))
	for k, i := range candidates {
		p := probs[k]
		tracks[k] = ScoredTrack{Track: in.Pool[i], LikeProb: &p}
	}
	sort.SliceStable(tracks, func(a, b int) bool {
		return *tracks[a].LikeProb > *tracks[b].LikeProb
	})
	return &Result{Tracks: tracks, Mode: ModeLearned}, "", nil
}

// trainAndPredict converts classifier panics into errors.
func (e *Engine) trainAndPredict(features [][]float64, labels []bool, pool []models.Track, candidates []int, enc *featureEncoder) (probs []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			probs = nil
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()

	e.rngMu.Lock()
	seed := e.rng.Int63()
	e.rngMu.Unlock()

	clf := e.newClassifier(seed)
	if clf == nil {
		return nil, errors.New("classifier factory returned nil")
	}
	if err := clf.Train(features, labels); err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	probs = make([]float64, len(candidates))
	for k, i := range candidates {
		p, err := clf.PredictProbability(enc.track(&pool[i]))
		if err != nil {
			return nil, fmt.Errorf("predict: %w", err)
		}
		probs[k] = p
	}
	return probs, nil
}
