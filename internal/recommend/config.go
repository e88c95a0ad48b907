// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package recommend

import (
	"errors"
	"fmt"
)

// Config contains all configuration for the ranking engine.
type Config struct {
	// LikedThreshold is the liked-set size at which learned ranking is attempted.
	LikedThreshold int `json:"liked_threshold"`

	// Forest contains parameters for the default random forest classifier.
	Forest ForestConfig `json:"forest"`

	// Seed is the random seed for shuffles and forest training.
	// If zero, a fixed default seed is used.
	Seed int64 `json:"seed"`
}

// ForestConfig contains parameters for the random forest.
type ForestConfig struct {
	// Trees is the number of trees in the ensemble.
	Trees int `json:"trees"`

	// MaxDepth limits tree depth.
	MaxDepth int `json:"max_depth"`

	// MinLeafSize is the minimum number of samples per leaf.
	MinLeafSize int `json:"min_leaf_size"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		LikedThreshold: 5,
		Forest: ForestConfig{
			Trees:       50,
			MaxDepth:    8,
			MinLeafSize: 1,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.LikedThreshold < 1 {
		errs = append(errs, fmt.Errorf("liked_threshold must be >= 1, got %d", c.LikedThreshold))
	}
	if c.Forest.Trees < 1 {
		errs = append(errs, fmt.Errorf("forest.trees must be >= 1, got %d", c.Forest.Trees))
	}
	if c.Forest.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("forest.max_depth must be >= 1, got %d", c.Forest.MaxDepth))
	}
	if c.Forest.MinLeafSize < 1 {
		errs = append(errs, fmt.Errorf("forest.min_leaf_size must be >= 1, got %d", c.Forest.MinLeafSize))
	}
	return errors.Join(errs...)
}
