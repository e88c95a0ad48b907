// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package algorithms

import "errors"

// Classifier is a binary classifier over dense numeric features.
//
// Implementations are not required to be safe for concurrent Train calls;
// the ranking engine builds a fresh classifier per request.
type Classifier interface {
	// Train fits the model. len(features) must equal len(labels) and every
	// row must have the same width.
	Train(features [][]float64, labels []bool) error

	// PredictProbability returns P(label == true) for one row.
	PredictProbability(features []float64) (float64, error)
}

var (
	// ErrNotTrained is returned by PredictProbability before a successful Train.
	ErrNotTrained = errors.New("classifier not trained")

	// ErrEmptyTrainingSet is returned when Train receives no rows.
	ErrEmptyTrainingSet = errors.New("empty training set")

	// ErrSingleClass is returned when every label has the same value.
	ErrSingleClass = errors.New("training labels contain a single class")

	// ErrShapeMismatch is returned for ragged rows or mismatched lengths.
	ErrShapeMismatch = errors.New("feature shape mismatch")
)

// validateTrainingSet checks the shape of a training set and returns the row width.
func validateTrainingSet(features [][]float64, labels []bool) (int, error) {
	if len(features) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(features) != len(labels) {
		return 0, ErrShapeMismatch
	}
	width := len(features[0])
	if width == 0 {
		return 0, ErrShapeMismatch
	}
	var pos, neg bool
	for i, row := range features {
		if len(row) != width {
			return 0, ErrShapeMismatch
		}
		if labels[i] {
			pos = true
		} else {
			neg = true
		}
	}
	if !pos || !neg {
		return 0, ErrSingleClass
	}
	return width, nil
}
