// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

/*
Package expand grows a user's track pool from their liked artists.

For each seed artist, in shuffled order:

 1. fetch the artist's top tags
 2. for every similar artist, fetch its top tracks; untagged tracks
    inherit the seed's tags
 3. for every tag, fetch the tag's top tracks

Candidates already in the pool or already collected are skipped. The walk
stops once 2x the cap has been collected. The collection is shuffled and the
first capPerCall tracks are written, so each call adds at most capPerCall
tracks drawn from a wider neighbourhood than the first few seeds.
*/
package expand
