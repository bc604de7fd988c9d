// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package optimize

import (
	"math/rand"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

// Dimension is one free numeric parameter and its sampling interval.
type Dimension struct {
	Column   string
	Interval brew.Interval
}

// Space is the search space of one suggestion: the free numeric
// dimensions and the bean types a candidate may use.
type Space struct {
	Dims  []Dimension
	Beans []string
}

// Intervals returns the sampling interval of every dimension.
func (s Space) Intervals() []brew.Interval {
	out := make([]brew.Interval, len(s.Dims))
	for i, d := range s.Dims {
		out[i] = d.Interval
	}
	return out
}

// Candidate is one point of the search space.
type Candidate struct {
	X    []float64
	Bean string
}

// Sampler draws global search candidates.
type Sampler interface {
	Sample(space Space, n int, rng *rand.Rand) []Candidate
}

// UniformSampler draws every dimension independently and uniformly from
// its interval and picks a bean uniformly from the choices.
type UniformSampler struct{}

var _ Sampler = UniformSampler{}

// Sample draws n candidates. Draw order is fixed (dimensions in order,
// then the bean) so a seeded rng yields reproducible candidates.
func (UniformSampler) Sample(space Space, n int, rng *rand.Rand) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		x := make([]float64, len(space.Dims))
		for j, d := range space.Dims {
			x[j] = d.Interval.Min + rng.Float64()*d.Interval.Width()
		}
		bean := brew.DefaultBean
		switch len(space.Beans) {
		case 0:
		case 1:
			bean = space.Beans[0]
		default:
			bean = space.Beans[rng.Intn(len(space.Beans))]
		}
		out[i] = Candidate{X: x, Bean: bean}
	}
	return out
}
