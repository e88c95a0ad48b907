// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

/*
Package models defines the data structures shared across Trackpool.

Key Components:

  - Track: a pool candidate with its source tag and seed provenance
  - TrackKey: the normalized (track name, artist) identity used for deduplication
  - Feedback: a user's liked/skipped label on a track
  - Stats: per-user pool and label counts
  - APIResponse: standard HTTP response envelope
  - Error sentinels: ErrRateLimitExceeded, ErrExternalSourceUnavailable,
    ErrInsufficientSeedData, ErrModelTrainingFailure, ErrTemporarilyUnavailable

Identity:

Track identity is compared through Normalize, which applies Unicode NFKC,
lower-cases, trims and collapses whitespace. Sanitize is applied to every text
field before it enters the model and removes non-printable characters.

	key := models.NewTrackKey("Teardrop ", "MASSIVE  attack")
	// key == "8:teardrop|massive attack"
*/
package models
