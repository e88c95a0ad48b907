// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

// Package validation validates API request structs with go-playground/validator v10.
//
// A single validator instance is shared process-wide. Error fields are reported
// by their json names, including the path into nested slices (tracks[3].artist),
// and are converted to VALIDATION_ERROR API errors:
//
//	type feedbackRequest struct {
//	    TrackName string `json:"track_name" validate:"required,notblank,max=512"`
//	    Liked     *bool  `json:"liked" validate:"required"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
//
// Custom rules:
//   - notblank: the string is non-empty after Unicode normalization and whitespace folding
package validation
