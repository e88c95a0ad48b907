// Trackpool - Personalized Track Pool Builder
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackpool

package algorithms

import (
	"math/rand"
	"sort"
)

// treeNode is a node of a binary CART tree. Leaves have left == nil.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode // feature value <= threshold
	right     *treeNode
	prob      float64 // fraction of positive samples reaching the node
}

func (n *treeNode) predict(row []float64) float64 {
	for n.left != nil {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.prob
}

// treeBuilder grows one tree over a fixed sample.
type treeBuilder struct {
	features    [][]float64
	labels      []bool
	maxDepth    int
	minLeafSize int
	maxFeatures int
	rng         *rand.Rand
}

// build grows a node from the rows named by idx.
func (b *treeBuilder) build(idx []int, depth int) *treeNode {
	pos := 0
	for _, i := range idx {
		if b.labels[i] {
			pos++
		}
	}
	node := &treeNode{prob: float64(pos) / float64(len(idx))}

	if pos == 0 || pos == len(idx) || depth >= b.maxDepth || len(idx) < 2*b.minLeafSize {
		return node
	}

	split, ok := b.bestSplit(idx, pos)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if b.features[i][split.feature] <= split.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.feature = split.feature
	node.threshold = split.threshold
	node.left = b.build(left, depth+1)
	node.right = b.build(right, depth+1)
	return node
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

// bestSplit searches a random subset of features for the threshold with the
// lowest weighted Gini impurity.
func (b *treeBuilder) bestSplit(idx []int, totalPos int) (split, bool) {
	width := len(b.features[idx[0]])
	candidates := b.rng.Perm(width)[:b.maxFeatures]

	best := split{impurity: gini(totalPos, len(idx))}
	found := false

	sorted := make([]int, len(idx))
	for _, f := range candidates {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool {
			return b.features[sorted[a]][f] < b.features[sorted[c]][f]
		})

		leftPos := 0
		for k := 0; k < len(sorted)-1; k++ {
			if b.labels[sorted[k]] {
				leftPos++
			}
			cur := b.features[sorted[k]][f]
			next := b.features[sorted[k+1]][f]
			if cur == next {
				continue
			}
			leftN := k + 1
			rightN := len(sorted) - leftN
			if leftN < b.minLeafSize || rightN < b.minLeafSize {
				continue
			}
			impurity := (float64(leftN)*gini(leftPos, leftN) +
				float64(rightN)*gini(totalPos-leftPos, rightN)) / float64(len(sorted))
			if impurity < best.impurity {
				best = split{feature: f, threshold: (cur + next) / 2, impurity: impurity}
				found = true
			}
		}
	}
	return best, found
}

// gini is the Gini impurity of a node with pos positives out of n.
func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
