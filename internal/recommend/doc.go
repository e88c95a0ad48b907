// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

// Package recommend ranks a user's track pool.
//
// # Modes
//
//   - Random: a uniform shuffle of the whole pool. Used while the liked set
//     is smaller than LikedThreshold and as the fallback for Learned.
//   - Learned: a classifier is trained on the user's feedback labels over
//     two categorical features (artist, first tag) and scores every pool
//     track the user has not labeled yet. Tracks are sorted by probability,
//     ties keep pool order.
//
// Learned mode needs at least one liked and one skipped label. Training or
// prediction errors, classifier panics and an empty candidate set all fall
// back to Random and are logged as models.ErrModelTrainingFailure; callers
// never see them.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), logger)
//	result := engine.Rank(ctx, recommend.Input{
//	    UserID:     userID,
//	    Pool:       pool,
//	    Labels:     labels,
//	    LikedCount: len(liked),
//	})
package recommend
