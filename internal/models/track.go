// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package models

import (
	"strconv"
	"strings"
	"time"
)

// SourceTag records where a pool candidate came from.
type SourceTag string

const (
	// SourcePrimaryLiked marks tracks imported from the user's library.
	SourcePrimaryLiked SourceTag = "primary_liked"

	// SourceArtistSimilarity marks tracks discovered through a similar artist.
	SourceArtistSimilarity SourceTag = "artist_similarity"

	// SourceGenreSimilarity marks tracks discovered through a seed tag.
	SourceGenreSimilarity SourceTag = "genre_similarity"

	// SourceUserLiked marks tracks the user liked through feedback.
	SourceUserLiked SourceTag = "user_liked"
)

// IsLiked reports whether the source belongs to the liked set.
func (s SourceTag) IsLiked() bool {
	return s == SourcePrimaryLiked || s == SourceUserLiked
}

// TrackKey is the normalized identity of a track within a user's pool.
// Two candidates with equal keys are the same track.
type TrackKey string

// NewTrackKey builds the identity key from a track name and artist.
// The name is length-prefixed so a separator inside either part cannot
// make two different tracks collide.
// Returns an empty key if either part normalizes to nothing.
func NewTrackKey(trackName, artist string) TrackKey {
	name := Normalize(trackName)
	art := Normalize(artist)
	if name == "" || art == "" {
		return ""
	}
	return TrackKey(strconv.Itoa(len(name)) + ":" + name + "|" + art)
}

// Track is a candidate in a user's pool.
type Track struct {
	// TrackName is the display title of the track.
	TrackName string `json:"track_name"`

	// Artist is the primary artist name.
	Artist string `json:"artist"`

	// Album is optional album metadata.
	Album string `json:"album,omitempty"`

	// ReleaseYear is the release year as reported by the source.
	ReleaseYear string `json:"release_year,omitempty"`

	// Source records how the track entered the pool.
	Source SourceTag `json:"source"`

	// Tags is a comma-joined list of genre/tag strings.
	Tags string `json:"tags,omitempty"`

	// ArtistSeed is the liked artist whose similarity walk produced this track.
	ArtistSeed string `json:"artist_seed,omitempty"`

	// GenreSeed is the tag whose top tracks produced this track.
	GenreSeed string `json:"genre_seed,omitempty"`

	// ExternalID is an identifier in the primary music provider or metadata source.
	ExternalID string `json:"external_id,omitempty"`

	// ImageURL is an album or track artwork URL.
	ImageURL string `json:"image_url,omitempty"`

	// AddedAt is when the track entered the pool.
	AddedAt time.Time `json:"added_at"`
}

// Key returns the normalized identity of the track.
func (t *Track) Key() TrackKey {
	return NewTrackKey(t.TrackName, t.Artist)
}

// PrimaryTag returns the first normalized tag, or an empty string if the track has none.
func (t *Track) PrimaryTag() string {
	if t.Tags == "" {
		return ""
	}
	first, _, _ := strings.Cut(t.Tags, ",")
	return Normalize(first)
}

// SanitizeFields strips non-printable characters from every text field.
func (t *Track) SanitizeFields() {
	t.TrackName = Sanitize(t.TrackName)
	t.Artist = Sanitize(t.Artist)
	t.Album = Sanitize(t.Album)
	t.ReleaseYear = Sanitize(t.ReleaseYear)
	t.Tags = Sanitize(t.Tags)
	t.ArtistSeed = Sanitize(t.ArtistSeed)
	t.GenreSeed = Sanitize(t.GenreSeed)
	t.ExternalID = Sanitize(t.ExternalID)
	t.ImageURL = Sanitize(t.ImageURL)
}

// Feedback is a user's explicit label on a track.
// At most one label exists per user and track key; later submissions overwrite it.
type Feedback struct {
	UserID      string    `json:"user_id"`
	TrackName   string    `json:"track_name"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album,omitempty"`
	ReleaseYear string    `json:"release_year,omitempty"`
	ExternalID  string    `json:"external_id,omitempty"`
	Liked       bool      `json:"liked"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key returns the normalized identity of the labeled track.
func (f *Feedback) Key() TrackKey {
	return NewTrackKey(f.TrackName, f.Artist)
}

// AsTrack converts the label into a pool candidate with the given source.
func (f *Feedback) AsTrack(source SourceTag) Track {
	return Track{
		TrackName:   f.TrackName,
		Artist:      f.Artist,
		Album:       f.Album,
		ReleaseYear: f.ReleaseYear,
		Source:      source,
		ExternalID:  f.ExternalID,
	}
}

// Stats summarizes a user's pool and labels.
type Stats struct {
	TotalSongs      int `json:"total_songs"`
	TotalLiked      int `json:"total_liked"`
	TotalFeedback   int `json:"total_feedback"`
	FeedbackLiked   int `json:"feedback_liked"`
	FeedbackSkipped int `json:"feedback_skipped"`
}
