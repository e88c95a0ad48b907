// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package api

import "github.com/tomtom215/trackpool/internal/models"

// userPath validates the path parameter shared by all user routes.
type userPath struct {
	UserID string `json:"user_id" validate:"required,max=128"`
}

// TrackInput is one library track in an import.
type TrackInput struct {
	TrackName   string `json:"track_name" validate:"required,max=512"`
	Artist      string `json:"artist" validate:"required,max=512"`
	Album       string `json:"album" validate:"max=512"`
	ReleaseYear string `json:"release_year" validate:"max=16"`
	Tags        string `json:"tags" validate:"max=1024"`
	ExternalID  string `json:"external_id" validate:"max=256"`
	ImageURL    string `json:"image_url" validate:"omitempty,url,max=2048"`
}

// ImportLikedRequest is the body of POST /users/{userID}/liked.
type ImportLikedRequest struct {
	Tracks []TrackInput `json:"tracks" validate:"required,min=1,max=5000,dive"`
}

// toTracks converts the request to library tracks.
func (r *ImportLikedRequest) toTracks() []models.Track {
	tracks := make([]models.Track, len(r.Tracks))
	for i, in := range r.Tracks {
		tracks[i] = models.Track{
			TrackName:   in.TrackName,
			Artist:      in.Artist,
			Album:       in.Album,
			ReleaseYear: in.ReleaseYear,
			Tags:        in.Tags,
			ExternalID:  in.ExternalID,
			ImageURL:    in.ImageURL,
		}
	}
	return tracks
}

// FeedbackRequest is the body of POST /users/{userID}/feedback.
// Liked is a pointer so a missing field is rejected instead of read as a skip.
type FeedbackRequest struct {
	TrackName   string `json:"track_name" validate:"required,max=512"`
	Artist      string `json:"artist" validate:"required,max=512"`
	Liked       *bool  `json:"liked" validate:"required"`
	Album       string `json:"album" validate:"max=512"`
	ReleaseYear string `json:"release_year" validate:"max=16"`
	ExternalID  string `json:"external_id" validate:"max=256"`
}
