// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package encoding

// Aligner reorders vectors from one feature-name order into another.
// Build it once per (from, to) pair and reuse it across a batch.
type Aligner struct {
	src      []int
	identity bool
}

// NewAligner prepares a mapping from the from order to the to order.
// Names in to that are absent from from are filled with 0.
func NewAligner(from, to []string) *Aligner {
	pos := make(map[string]int, len(from))
	for i, name := range from {
		pos[name] = i
	}
	a := &Aligner{src: make([]int, len(to)), identity: len(from) == len(to)}
	for i, name := range to {
		j, ok := pos[name]
		if !ok {
			j = -1
		}
		a.src[i] = j
		if j != i {
			a.identity = false
		}
	}
	return a
}

// Apply returns vec in the target order. The input is returned unchanged
// when the orders already match.
func (a *Aligner) Apply(vec []float64) []float64 {
	if a.identity {
		return vec
	}
	out := make([]float64, len(a.src))
	for i, j := range a.src {
		if j >= 0 && j < len(vec) {
			out[i] = vec[j]
		}
	}
	return out
}

// ApplyAll aligns every row of X.
func (a *Aligner) ApplyAll(X [][]float64) [][]float64 {
	if a.identity {
		return X
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = a.Apply(row)
	}
	return out
}
