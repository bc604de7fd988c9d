// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package regressors

import (
	"math/rand"
	"sort"
)

// Node is one node of a flattened regression tree. Leaves have Feature -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a CART regression tree stored as a flat node slice rooted at 0.
type Tree struct {
	Nodes []Node
}

// Predict walks the tree for x.
func (t *Tree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeParams struct {
	maxDepth        int // 0 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 means all
}

// treeBuilder grows one tree by greedy variance reduction.
type treeBuilder struct {
	X          [][]float64
	y          []float64
	params     treeParams
	rng        *rand.Rand
	importance []float64
	nodes      []Node
}

func newTreeBuilder(X [][]float64, y []float64, params treeParams, rng *rand.Rand) *treeBuilder {
	p := 0
	if len(X) > 0 {
		p = len(X[0])
	}
	if params.minSamplesSplit < 2 {
		params.minSamplesSplit = 2
	}
	if params.minSamplesLeaf < 1 {
		params.minSamplesLeaf = 1
	}
	return &treeBuilder{
		X:          X,
		y:          y,
		params:     params,
		rng:        rng,
		importance: make([]float64, p),
	}
}

// grow builds a tree over the sample indices.
func (b *treeBuilder) grow(idx []int) Tree {
	b.nodes = b.nodes[:0]
	b.build(idx, 0)
	return Tree{Nodes: append([]Node(nil), b.nodes...)}
}

// build appends the subtree for idx and returns its node index.
func (b *treeBuilder) build(idx []int, depth int) int {
	self := len(b.nodes)
	sum, sumSq := b.moments(idx)
	n := float64(len(idx))
	b.nodes = append(b.nodes, Node{Feature: -1, Value: sum / n})

	sse := sumSq - sum*sum/n
	if len(idx) < b.params.minSamplesSplit ||
		(b.params.maxDepth > 0 && depth >= b.params.maxDepth) ||
		sse <= 1e-12 {
		return self
	}

	feature, threshold, gain, ok := b.bestSplit(idx, sse)
	if !ok {
		return self
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	b.importance[feature] += gain

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[self] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r, Value: sum / n}
	return self
}

func (b *treeBuilder) moments(idx []int) (sum, sumSq float64) {
	for _, i := range idx {
		v := b.y[i]
		sum += v
		sumSq += v * v
	}
	return sum, sumSq
}

// candidateFeatures returns the features examined at a split.
func (b *treeBuilder) candidateFeatures() []int {
	p := len(b.importance)
	if b.params.maxFeatures <= 0 || b.params.maxFeatures >= p || b.rng == nil {
		out := make([]int, p)
		for j := range out {
			out[j] = j
		}
		return out
	}
	perm := b.rng.Perm(p)[:b.params.maxFeatures]
	sort.Ints(perm)
	return perm
}

// bestSplit finds the split with the largest SSE reduction.
func (b *treeBuilder) bestSplit(idx []int, parentSSE float64) (feature int, threshold, gain float64, ok bool) {
	n := len(idx)
	minLeaf := b.params.minSamplesLeaf
	sorted := make([]int, n)

	for _, f := range b.candidateFeatures() {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool { return b.X[sorted[a]][f] < b.X[sorted[c]][f] })

		var totalSum, totalSq float64
		for _, i := range sorted {
			totalSum += b.y[i]
			totalSq += b.y[i] * b.y[i]
		}

		var lSum, lSq float64
		for k := 0; k < n-1; k++ {
			v := b.y[sorted[k]]
			lSum += v
			lSq += v * v

			nl := k + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			xk := b.X[sorted[k]][f]
			xn := b.X[sorted[k+1]][f]
			if xk == xn {
				continue
			}

			rSum := totalSum - lSum
			rSq := totalSq - lSq
			sse := (lSq - lSum*lSum/float64(nl)) + (rSq - rSum*rSum/float64(nr))
			g := parentSSE - sse
			if g > gain+1e-12 {
				feature, threshold, gain, ok = f, (xk+xn)/2, g, true
			}
		}
	}
	return feature, threshold, gain, ok
}
