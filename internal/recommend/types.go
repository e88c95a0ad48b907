// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package recommend

import (
	"github.com/tomtom215/trackpool/internal/models"
)

// Mode names the ordering that produced a ranking.
type Mode string

const (
	// ModeRandom is a uniform shuffle of the pool.
	ModeRandom Mode = "Random"

	// ModeLearned orders unlabeled candidates by predicted like probability.
	ModeLearned Mode = "Learned"
)

// String returns the display name of the mode.
func (m Mode) String() string {
	return string(m)
}

// ScoredTrack is a pool track with an optional predicted like probability.
type ScoredTrack struct {
	models.Track

	// LikeProb is set only in Learned mode.
	LikeProb *float64 `json:"like_prob,omitempty"`
}

// Input is everything needed to rank one user's pool.
type Input struct {
	UserID string

	// Pool in insertion order. Ties in Learned mode keep this order.
	Pool []models.Track

	// Labels are the user's feedback labels.
	Labels []models.Feedback

	// LikedCount is the size of the user's liked set.
	LikedCount int
}

// Result is an ordered ranking.
type Result struct {
	Tracks []ScoredTrack
	Mode   Mode
}

// Fallback reasons reported to metrics and logs.
const (
	fallbackSingleClass  = "single_class"
	fallbackNoCandidates = "no_candidates"
	fallbackTraining     = "training_failure"
	fallbackCancelled    = "cancelled"
)
