// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trackpool/internal/metrics"
	"github.com/tomtom215/trackpool/internal/models"
	"github.com/tomtom215/trackpool/internal/recommend/algorithms"
)

// stubClassifier scores rows by a fixed function.
type stubClassifier struct {
	trainErr   error
	predictErr error
	panicOn    string
	score      func(row []float64) float64
}

func (s *stubClassifier) Train(_ [][]float64, _ []bool) error {
	if s.panicOn == "train" {
		panic("boom")
	}
	return s.trainErr
}

func (s *stubClassifier) PredictProbability(row []float64) (float64, error) {
	if s.panicOn == "predict" {
		panic("boom")
	}
	if s.predictErr != nil {
		return 0, s.predictErr
	}
	if s.score == nil {
		return 0.5, nil
	}
	return s.score(row), nil
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func testPool(n int) []models.Track {
	pool := make([]models.Track, n)
	for i := range pool {
		pool[i] = models.Track{
			TrackName: fmt.Sprintf("Song %d", i),
			Artist:    fmt.Sprintf("Artist %d", i%4),
			Tags:      []string{"rock", "jazz", ""}[i%3],
			Source:    models.SourceArtistSimilarity,
		}
	}
	return pool
}

func label(tr *models.Track, liked bool) models.Feedback {
	return models.Feedback{UserID: "u1", TrackName: tr.TrackName, Artist: tr.Artist, Liked: liked}
}

func TestRank_ModeSelection(t *testing.T) {
	pool := testPool(12)
	bothLabels := []models.Feedback{label(&pool[0], true), label(&pool[1], false)}
	likedOnly := []models.Feedback{label(&pool[0], true), label(&pool[1], true)}

	tests := []struct {
		name   string
		liked  int
		labels []models.Feedback
		want   Mode
	}{
		{"below threshold", 3, bothLabels, ModeRandom},
		{"threshold with liked labels only", 5, likedOnly, ModeRandom},
		{"threshold with both label values", 5, bothLabels, ModeLearned},
		{"threshold without labels", 5, nil, ModeRandom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			got := e.Rank(context.Background(), Input{UserID: "u1", Pool: pool, Labels: tt.labels, LikedCount: tt.liked})
			if got.Mode != tt.want {
				t.Errorf("Mode = %s, want %s", got.Mode, tt.want)
			}
		})
	}
}

func TestRank_RandomIsPermutation(t *testing.T) {
	pool := testPool(30)
	e := newTestEngine(t)

	got := e.Rank(context.Background(), Input{UserID: "u1", Pool: pool, LikedCount: 0})
	if len(got.Tracks) != len(pool) {
		t.Fatalf("len = %d, want %d", len(got.Tracks), len(pool))
	}
	seen := make(map[models.TrackKey]bool)
	for i := range got.Tracks {
		if got.Tracks[i].LikeProb != nil {
			t.Error("random ranking must not carry probabilities")
		}
		seen[got.Tracks[i].Key()] = true
	}
	if len(seen) != len(pool) {
		t.Errorf("shuffle lost or duplicated tracks: %d unique", len(seen))
	}
	if pool[0].TrackName != "Song 0" {
		t.Error("input pool must not be reordered")
	}
}

func TestRank_LearnedScoresOnlyUnlabeled(t *testing.T) {
	pool := testPool(12)
	labels := []models.Feedback{label(&pool[0], true), label(&pool[1], false), label(&pool[2], true)}

	e := newTestEngine(t)
	// Higher artist id scores higher; ties within an artist keep pool order.
	e.SetClassifierFactory(func(int64) algorithms.Classifier {
		return &stubClassifier{score: func(row []float64) float64 { return row[0] / 10 }}
	})

	got := e.Rank(context.Background(), Input{UserID: "u1", Pool: pool, Labels: labels, LikedCount: 5})
	if got.Mode != ModeLearned {
		t.Fatalf("Mode = %s", got.Mode)
	}
	if len(got.Tracks) != 9 {
		t.Fatalf("expected 9 unlabeled candidates, got %d", len(got.Tracks))
	}
	for i := range got.Tracks {
		if got.Tracks[i].LikeProb == nil {
			t.Fatalf("track %d missing like_prob", i)
		}
		if i > 0 && *got.Tracks[i].LikeProb > *got.Tracks[i-1].LikeProb {
			t.Errorf("not sorted by probability at %d", i)
		}
		switch got.Tracks[i].TrackName {
		case "Song 0", "Song 1", "Song 2":
			t.Errorf("labeled track %q should not be ranked", got.Tracks[i].TrackName)
		}
	}
	// Artist 3 (id 3) holds songs 3, 7, 11; stable sort keeps pool order.
	want := []string{"Song 3", "Song 7", "Song 11"}
	for i, name := range want {
		if got.Tracks[i].TrackName != name {
			t.Errorf("Tracks[%d] = %q, want %q", i, got.Tracks[i].TrackName, name)
		}
	}
}

func TestRank_LearnedWithForest(t *testing.T) {
	pool := testPool(40)
	var labels []models.Feedback
	for i := 0; i < 16; i++ {
		// Artist 0 is always liked, artist 1 always skipped.
		switch pool[i].Artist {
		case "Artist 0":
			labels = append(labels, label(&pool[i], true))
		case "Artist 1":
			labels = append(labels, label(&pool[i], false))
		}
	}

	e := newTestEngine(t)
	got := e.Rank(context.Background(), Input{UserID: "u1", Pool: pool, Labels: labels, LikedCount: 8})
	if got.Mode != ModeLearned {
		t.Fatalf("Mode = %s", got.Mode)
	}
	if got.Tracks[0].Artist != "Artist 0" {
		t.Errorf("expected a liked artist's track first, got %q (p=%.3f)", got.Tracks[0].Artist, *got.Tracks[0].LikeProb)
	}
}

func TestRank_FallbacksToRandom(t *testing.T) {
	pool := testPool(10)
	labels := []models.Feedback{label(&pool[0], true), label(&pool[1], false)}

	tests := []struct {
		name   string
		clf    *stubClassifier
		reason string
	}{
		{"train error", &stubClassifier{trainErr: errors.New("singular")}, fallbackTraining},
		{"predict error", &stubClassifier{predictErr: errors.New("nan")}, fallbackTraining},
		{"train panic", &stubClassifier{panicOn: "train"}, fallbackTraining},
		{"predict panic", &stubClassifier{panicOn: "predict"}, fallbackTraining},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			e.SetClassifierFactory(func(int64) algorithms.Classifier { return tt.clf })

			before := testutil.ToFloat64(metrics.RankingFallbacks.WithLabelValues(tt.reason))
			got := e.Rank(context.Background(), Input{UserID: "u1", Pool: pool, Labels: labels, LikedCount: 5})
			if got.Mode != ModeRandom || len(got.Tracks) != len(pool) {
				t.Errorf("expected full random ranking, got %s with %d tracks", got.Mode, len(got.Tracks))
			}
			after := testutil.ToFloat64(metrics.RankingFallbacks.WithLabelValues(tt.reason))
			if after != before+1 {
				t.Errorf("fallback counter moved %v -> %v", before, after)
			}
		})
	}
}

func TestLearned_WrapsTrainingFailure(t *testing.T) {
	pool := testPool(6)
	e := newTestEngine(t)
	e.SetClassifierFactory(func(int64) algorithms.Classifier {
		return &stubClassifier{trainErr: errors.New("bad")}
	})

	_, reason, err := e.learned(context.Background(), Input{
		Pool:   pool,
		Labels: []models.Feedback{label(&pool[0], true), label(&pool[1], false)},
	})
	if reason != fallbackTraining || !errors.Is(err, models.ErrModelTrainingFailure) {
		t.Errorf("reason = %q, err = %v", reason, err)
	}
}

func TestRank_AllLabeledFallsBack(t *testing.T) {
	pool := testPool(2)
	labels := []models.Feedback{label(&pool[0], true), label(&pool[1], false)}

	e := newTestEngine(t)
	got := e.Rank(context.Background(), Input{UserID: "u1", Pool: pool, Labels: labels, LikedCount: 5})
	if got.Mode != ModeRandom || len(got.Tracks) != 2 {
		t.Errorf("expected random fallback over full pool, got %s/%d", got.Mode, len(got.Tracks))
	}
}

func TestFeatureEncoder(t *testing.T) {
	pool := []models.Track{
		{TrackName: "A", Artist: "Björk", Tags: "Electronic, art pop"},
		{TrackName: "B", Artist: "BJÖRK "},
		{TrackName: "C", Artist: "Air", Tags: "electronic"},
	}
	enc := newFeatureEncoder(pool)

	if got := enc.track(&pool[1]); got[0] != 0 || got[1] != 1 {
		t.Errorf("track B = %v, want artist 0 and the none tag id 1", got)
	}
	if got := enc.track(&pool[2]); got[0] != 1 || got[1] != 0 {
		t.Errorf("track C = %v, want [1 0]", got)
	}

	pooled := map[models.TrackKey]*models.Track{pool[0].Key(): &pool[0]}
	fb := models.Feedback{TrackName: "Elsewhere", Artist: "Moby"}
	if got := enc.label(&fb, pooled); got[0] != 2 || got[1] != 1 {
		t.Errorf("unpooled label = %v, want new artist id 2 and the none tag", got)
	}
	inPool := models.Feedback{TrackName: "a", Artist: "björk"}
	if got := enc.label(&inPool, pooled); got[0] != 0 || got[1] != 0 {
		t.Errorf("pooled label = %v, want [0 0]", got)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	bad := &Config{}
	if err := bad.Validate(); err == nil {
		t.Error("expected errors for zero config")
	}
	if _, err := NewEngine(bad, zerolog.Nop()); err == nil {
		t.Error("NewEngine should reject invalid config")
	}
}
