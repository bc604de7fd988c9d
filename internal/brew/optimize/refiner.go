// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package optimize

import (
	"context"
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

// penalty replaces a non-finite objective value during local search.
const penalty = 1e6

// ErrNoImprovement is returned by a Refiner that could not produce a
// finite result.
var ErrNoImprovement = errors.New("refinement produced no finite result")

// Refiner improves a starting point inside a box.
type Refiner interface {
	// Refine minimizes f from x0 with every coordinate kept inside box.
	// It returns the best point it found and its value.
	Refine(ctx context.Context, f func([]float64) float64, x0 []float64, box []brew.Interval) ([]float64, float64, error)
}

// LBFGSRefiner runs limited-memory BFGS on an unconstrained
// reparameterisation of the box: x = lo + (hi-lo)*sigmoid(z). The gradient
// is a central finite difference in z.
type LBFGSRefiner struct {
	Iterations int
	Step       float64
}

var _ Refiner = (*LBFGSRefiner)(nil)

// Refine implements Refiner. Degenerate dimensions (lo == hi) are held at
// their value.
func (r *LBFGSRefiner) Refine(ctx context.Context, f func([]float64) float64, x0 []float64, box []brew.Interval) ([]float64, float64, error) {
	free := make([]int, 0, len(box))
	for i, b := range box {
		if b.Width() > 0 {
			free = append(free, i)
		}
	}

	toX := func(z []float64) []float64 {
		x := append([]float64(nil), x0...)
		for k, i := range free {
			x[i] = box[i].Min + box[i].Width()*sigmoid(z[k])
		}
		return x
	}
	safe := func(x []float64) float64 {
		if ctx.Err() != nil {
			return penalty
		}
		v := f(x)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return penalty
		}
		return v
	}

	if len(free) == 0 {
		v := safe(x0)
		if v >= penalty {
			return nil, 0, ErrNoImprovement
		}
		return append([]float64(nil), x0...), v, nil
	}

	z0 := make([]float64, len(free))
	for k, i := range free {
		z0[k] = logit((x0[i] - box[i].Min) / box[i].Width())
	}

	fz := func(z []float64) float64 { return safe(toX(z)) }
	step := r.Step
	if step <= 0 {
		step = 1e-3
	}
	problem := optimize.Problem{
		Func: fz,
		Grad: func(grad, z []float64) {
			fd.Gradient(grad, fz, z, &fd.Settings{Formula: fd.Central, Step: step})
		},
	}

	iters := r.Iterations
	if iters <= 0 {
		iters = 100
	}
	settings := &optimize.Settings{
		MajorIterations: iters,
		FuncEvaluations: iters * (2*len(free) + 4),
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-9,
			Iterations: 10,
		},
	}
	if deadline, ok := ctx.Deadline(); ok {
		settings.Runtime = time.Until(deadline)
		if settings.Runtime <= 0 {
			return nil, 0, ctx.Err()
		}
	}

	result, err := optimize.Minimize(problem, z0, settings, &optimize.LBFGS{})
	if result == nil {
		if err == nil {
			err = ErrNoImprovement
		}
		return nil, 0, err
	}
	x := toX(result.Location.X)
	v := safe(x)
	if v >= penalty {
		return nil, 0, ErrNoImprovement
	}
	// A line-search failure still leaves a usable location.
	return x, v, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// logit is the inverse of sigmoid, with p kept away from 0 and 1.
func logit(p float64) float64 {
	const eps = 1e-6
	p = math.Max(eps, math.Min(1-eps, p))
	return math.Log(p / (1 - p))
}
