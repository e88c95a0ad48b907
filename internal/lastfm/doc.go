// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

/*
Package lastfm is the similarity source used to grow track pools.

It wraps four Last.fm methods:

  - artist.getsimilar   -> SimilarArtists
  - artist.gettoptracks -> TopTracksForArtist
  - artist.gettoptags   -> TopTags
  - tag.gettoptracks    -> TopTracksForTag

Resilience, per network attempt:

 1. Wait for the shared sliding-window budget (key "lastfm_api")
 2. Wait for the minimum call spacing (golang.org/x/time/rate)
 3. Execute through the "lastfm-api" circuit breaker (sony/gobreaker)

Transient failures (network, 5xx, malformed body, API codes 11 and 16) are
retried with capped exponential backoff. HTTP 429 and API code 29 trigger a
cooldown and an empty result. Other API errors return empty immediately.
Lookups never return errors; expansion treats an empty result as "nothing
found here" and moves on to the next seed.

Response quirks handled at decode time:

  - the track artist is either "Name" or {"name": "Name"} (ArtistRef)
  - single-element lists arrive as a bare object, empty lists as ""
*/
package lastfm
