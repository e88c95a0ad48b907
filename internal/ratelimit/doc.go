// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

// Package ratelimit implements a keyed sliding-window limiter.
//
// One key is used per external source (all users share the Last.fm budget)
// and one per user for the expand endpoint:
//
//	limiter := ratelimit.New()
//	if err := limiter.Wait(ctx, "lastfm_api", 2, time.Second); err != nil {
//	    return err
//	}
//
//	if err := limiter.CheckOrFail("expand:"+userID, 3, time.Minute); err != nil {
//	    var le *ratelimit.LimitError
//	    errors.As(err, &le) // le.RetryAfter
//	}
//
// Sweep is run periodically by the maintenance service to drop idle keys.
package ratelimit
