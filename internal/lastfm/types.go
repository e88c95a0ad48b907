// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package lastfm

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// ArtistRef is an artist field that Last.fm encodes either as a plain
// string or as an object with a name. It is resolved to Name at decode time.
type ArtistRef struct {
	Name string
}

// UnmarshalJSON accepts "Artist" and {"name": "Artist", ...}.
func (a *ArtistRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		a.Name = ""
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &a.Name)
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("artist: %w", err)
	}
	a.Name = obj.Name
	return nil
}

// oneOrMany decodes a list that Last.fm collapses to a single object when
// it has one element, and to an empty string when it has none.
type oneOrMany[T any] []T

func (l *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case data[0] == '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	case data[0] == '{':
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return err
		}
		*l = oneOrMany[T]{item}
		return nil
	case data[0] == '"':
		*l = nil
		return nil
	default:
		return fmt.Errorf("unexpected list encoding %q", data[:1])
	}
}

type namedItem struct {
	Name string `json:"name"`
}

type imageItem struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

type trackItem struct {
	Name   string               `json:"name"`
	MBID   string               `json:"mbid"`
	Artist ArtistRef            `json:"artist"`
	Image  oneOrMany[imageItem] `json:"image"`
}

// largestImage returns the last non-empty image URL; Last.fm lists sizes ascending.
func (t *trackItem) largestImage() string {
	for i := len(t.Image) - 1; i >= 0; i-- {
		if t.Image[i].URL != "" {
			return t.Image[i].URL
		}
	}
	return ""
}

type similarArtistsResponse struct {
	SimilarArtists struct {
		Artist oneOrMany[namedItem] `json:"artist"`
	} `json:"similarartists"`
}

type artistTopTracksResponse struct {
	TopTracks struct {
		Track oneOrMany[trackItem] `json:"track"`
	} `json:"toptracks"`
}

type artistTopTagsResponse struct {
	TopTags struct {
		Tag oneOrMany[namedItem] `json:"tag"`
	} `json:"toptags"`
}

type tagTopTracksResponse struct {
	Tracks struct {
		Track oneOrMany[trackItem] `json:"track"`
	} `json:"tracks"`
}

// errorResponse is the body Last.fm returns for API-level failures,
// often with HTTP 200.
type errorResponse struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// Last.fm API error codes that change retry behaviour.
const (
	codeServiceOffline   = 11
	codeTemporaryFailure = 16
	codeRateLimited      = 29
)
