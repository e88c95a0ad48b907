// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

// Package algorithms implements the classifiers used for learned ranking.
//
// Every classifier implements Classifier:
//
//	Train(features [][]float64, labels []bool) error
//	PredictProbability(features []float64) (float64, error)
//
// RandomForest is the default: bootstrap-sampled CART trees split on Gini
// impurity, a random feature subset per split, probability averaged across
// trees. Training is deterministic for a given Seed.
package algorithms
