// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package algorithms

import (
	"fmt"
	"math"
	"math/rand"
)

// RandomForestConfig contains configuration for RandomForest.
type RandomForestConfig struct {
	// Trees is the number of bagged trees. Default: 50.
	Trees int

	// MaxDepth limits tree depth. Default: 8.
	MaxDepth int

	// MinLeafSize is the minimum number of samples per leaf. Default: 1.
	MinLeafSize int

	// MaxFeatures is the number of features tried per split.
	// Zero uses floor(sqrt(width)), at least 1.
	MaxFeatures int

	// Seed makes training deterministic.
	Seed int64
}

// RandomForest is a bagged ensemble of Gini CART trees. The predicted
// probability is the mean of the leaf probabilities across trees.
type RandomForest struct {
	cfg   RandomForestConfig
	width int
	trees []*treeNode
}

// NewRandomForest creates an untrained forest.
func NewRandomForest(cfg RandomForestConfig) *RandomForest {
	if cfg.Trees <= 0 {
		cfg.Trees = 50
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 8
	}
	if cfg.MinLeafSize <= 0 {
		cfg.MinLeafSize = 1
	}
	return &RandomForest{cfg: cfg}
}

// Train fits the forest, replacing any earlier model.
func (f *RandomForest) Train(features [][]float64, labels []bool) error {
	width, err := validateTrainingSet(features, labels)
	if err != nil {
		return err
	}

	maxFeatures := f.cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(width)))
	}
	maxFeatures = max(1, min(maxFeatures, width))

	rng := rand.New(rand.NewSource(f.cfg.Seed)) //nolint:gosec // math/rand is fine for bootstrap sampling
	n := len(features)
	trees := make([]*treeNode, 0, f.cfg.Trees)
	for t := 0; t < f.cfg.Trees; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		b := &treeBuilder{
			features:    features,
			labels:      labels,
			maxDepth:    f.cfg.MaxDepth,
			minLeafSize: f.cfg.MinLeafSize,
			maxFeatures: maxFeatures,
			rng:         rng,
		}
		trees = append(trees, b.build(sample, 0))
	}

	f.width = width
	f.trees = trees
	return nil
}

// PredictProbability returns the mean positive-class probability.
func (f *RandomForest) PredictProbability(row []float64) (float64, error) {
	if len(f.trees) == 0 {
		return 0, ErrNotTrained
	}
	if len(row) != f.width {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(row), f.width)
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees)), nil
}

var _ Classifier = (*RandomForest)(nil)
