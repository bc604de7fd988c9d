// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package optimize

import (
	"context"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

// BlendResult is the outcome of a blend optimization.
type BlendResult struct {
	Blend    brew.BeanBlend
	Primary  string
	Distance float64

	// Fallback is set when the optimizer failed and the blend is the
	// equal split.
	Fallback bool
	Reason   string
}

// BlendOptimizer finds the percentage mix of candidate beans whose primary
// bean brings the base parameters closest to the desired flavor.
type BlendOptimizer struct {
	cfg BlendConfig
}

// NewBlendOptimizer creates a blend optimizer.
func NewBlendOptimizer(cfg BlendConfig) *BlendOptimizer {
	return &BlendOptimizer{cfg: cfg}
}

// Optimize solves for a blend of beans. The first n-1 percentages are the
// decision variables and the last is 100 minus their sum; points outside
// [0, 100] are penalised. The start is the equal split. The solution is
// rounded half-to-even and repaired to sum to exactly 100. Any optimizer
// failure falls back to the equal split with the remainder on the first
// bean. beans must be normalized and free of duplicates.
//
//nolint:gocritic // base row maps are cloned per evaluation
func (b *BlendOptimizer) Optimize(ctx context.Context, obj *Objective, beans []string, base brew.Row) BlendResult {
	if len(beans) == 0 {
		return BlendResult{Distance: math.Inf(1), Fallback: true, Reason: "no beans"}
	}
	if len(beans) == 1 {
		blend := brew.BeanBlend{beans[0]: 100}
		return BlendResult{Blend: blend, Primary: beans[0], Distance: b.score(ctx, obj, base, beans[0])}
	}

	n := len(beans)
	// Only the primary bean reaches the forward model, so scores are
	// cached per bean.
	cache := make(map[string]float64, n)
	scoreBean := func(bean string) float64 {
		if v, ok := cache[bean]; ok {
			return v
		}
		v := b.score(ctx, obj, base, bean)
		cache[bean] = v
		return v
	}

	f := func(x []float64) float64 {
		pcts, violation := complete(x)
		if violation > 0 {
			return penalty + violation
		}
		primary := primaryOf(beans, pcts)
		v := scoreBean(primary)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return penalty
		}
		return v
	}

	x0 := make([]float64, n-1)
	for i := range x0 {
		x0[i] = 100 / float64(n)
	}
	settings := &optimize.Settings{
		MajorIterations: b.cfg.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   b.cfg.Tolerance,
			Iterations: 10,
		},
	}
	result, err := optimize.Minimize(optimize.Problem{Func: f}, x0, settings, &optimize.NelderMead{SimplexSize: b.cfg.SimplexSize})

	fallback := func(reason string) BlendResult {
		blend := brew.EqualSplit(beans)
		primary := brew.PrimaryInOrder(beans, blend)
		return BlendResult{
			Blend:    blend,
			Primary:  primary,
			Distance: scoreBean(primary),
			Fallback: true,
			Reason:   reason,
		}
	}
	if result == nil {
		reason := "blend optimizer returned no result"
		if err != nil {
			reason = err.Error()
		}
		return fallback(reason)
	}

	pcts, violation := complete(result.Location.X)
	for _, p := range pcts {
		if math.IsNaN(p) {
			return fallback("blend optimizer produced NaN")
		}
	}
	if violation > 0.5 {
		return fallback("blend optimizer left the feasible region")
	}
	if result.Location.F >= penalty {
		return fallback("no bean could be evaluated")
	}

	rounded := make([]int, n)
	for i, p := range pcts {
		rounded[i] = int(math.RoundToEven(math.Max(0, p)))
	}
	repairSum(rounded)

	blend := make(brew.BeanBlend, n)
	for i, bean := range beans {
		if rounded[i] > 0 {
			blend[bean] = rounded[i]
		}
	}
	if !blend.Valid() {
		return fallback("repaired blend is invalid")
	}
	primary := brew.PrimaryInOrder(beans, blend)
	return BlendResult{Blend: blend, Primary: primary, Distance: scoreBean(primary)}
}

// score evaluates base with bean as its bean type.
//
//nolint:gocritic // base row maps are cloned
func (b *BlendOptimizer) score(ctx context.Context, obj *Objective, base brew.Row, bean string) float64 {
	row := base.Clone()
	row.Categorical[brew.ColBeanType] = bean
	return obj.EvaluateOne(ctx, row)
}

// complete appends the implied last percentage and returns the total
// amount by which the point leaves [0, 100].
func complete(x []float64) ([]float64, float64) {
	pcts := make([]float64, len(x)+1)
	rest := 100.0
	for i, v := range x {
		pcts[i] = v
		rest -= v
	}
	pcts[len(x)] = rest

	var violation float64
	for _, p := range pcts {
		if p < 0 {
			violation -= p
		}
		if p > 100 {
			violation += p - 100
		}
	}
	return pcts, violation
}

// primaryOf returns the bean with the largest share, first in order on ties.
func primaryOf(beans []string, pcts []float64) string {
	best := 0
	for i := range pcts {
		if pcts[i] > pcts[best] {
			best = i
		}
	}
	return beans[best]
}

// repairSum adjusts rounded percentages until they sum to 100: while the
// sum is short it adds 1 to the largest entry below 100, and while it is
// over it subtracts 1 from the smallest nonzero entry. Ties go to the
// earliest entry.
func repairSum(pcts []int) {
	for guard := 0; guard < 1000; guard++ {
		sum := 0
		for _, p := range pcts {
			sum += p
		}
		switch {
		case sum == 100:
			return
		case sum < 100:
			idx := -1
			for i, p := range pcts {
				if p < 100 && (idx < 0 || p > pcts[idx]) {
					idx = i
				}
			}
			if idx < 0 {
				return
			}
			pcts[idx]++
		default:
			idx := -1
			for i, p := range pcts {
				if p > 0 && (idx < 0 || p < pcts[idx]) {
					idx = i
				}
			}
			if idx < 0 {
				return
			}
			pcts[idx]--
		}
	}
}
