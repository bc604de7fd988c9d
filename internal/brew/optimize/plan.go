// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package optimize

import (
	"math"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

// plan is the resolved shape of one suggestion: what is fixed, what is
// searched and the row every candidate starts from.
type plan struct {
	cup      float64
	fixed    map[string]float64
	metadata map[string]string
	warm     map[string]float64
	beans    []string
	blend    brew.BeanBlend
	space    Space
	base     brew.Row
}

// newPlan validates req and resolves its search space.
//
//nolint:gocritic // request passed by value is not mutated
func (o *Optimizer) newPlan(desired brew.FlavorProfile, req Request) (*plan, error) {
	if err := brew.ValidateDesired(desired); err != nil {
		return nil, err
	}
	if err := brew.ValidateFixed(req.Fixed); err != nil {
		return nil, err
	}
	beans := brew.NormalizeBeans(req.BeanList)
	if len(beans) > 0 {
		if err := brew.ValidateBeanList(beans, 1); err != nil {
			return nil, err
		}
	}
	if req.Candidates != nil && *req.Candidates < 0 {
		return nil, brew.NewValidationError("candidates", "candidates must not be negative")
	}

	p := &plan{
		cup:      req.Fixed.CupVolume(),
		fixed:    req.Fixed.Fixed(),
		metadata: req.Fixed.Metadata(),
		warm:     req.WarmStart,
		beans:    beans,
	}

	p.base = brew.NewRow()
	p.base.Numeric[brew.ColGroundSize] = brew.GrindSize
	p.base.Numeric[brew.ColCupSize] = p.cup
	for col, v := range p.metadata {
		p.base.Categorical[col] = v
	}
	for col, v := range req.Context {
		p.base.SetCategory(col, v)
	}

	// Numeric dimensions.
	for _, col := range tunables {
		if v, ok := p.fixed[col]; ok {
			p.base.Numeric[col] = v
			continue
		}
		p.space.Dims = append(p.space.Dims, Dimension{Column: col, Interval: o.interval(col, desired, p)})
	}

	// Bean choices. A bean list of two or more defines a blend and takes
	// precedence over a fixed bean type.
	fixedBean := brew.NormalizeCategory(req.Fixed.BeanType)
	switch {
	case len(req.Fixed.BeanBlend) > 0:
		p.blend = normalizeBlend(req.Fixed.BeanBlend)
		p.space.Beans = []string{p.blend.Primary()}
	case len(beans) > 0:
		p.space.Beans = []string{beans[0]}
	case fixedBean != "":
		p.space.Beans = []string{fixedBean}
	default:
		for _, b := range brew.NormalizeBeans(req.BeanChoices) {
			if b != "" && b != brew.UnknownCategory {
				p.space.Beans = append(p.space.Beans, b)
			}
		}
		if len(p.space.Beans) == 0 {
			p.space.Beans = []string{brew.DefaultBean}
		}
	}
	return p, nil
}

// interval resolves the sampling interval of a free tunable. It starts at
// the physical bound (or the cup dose window for dose), narrows to the
// warm start window when one is given and, for temperature with a desired
// bitterness, is replaced by the temperature prior window.
func (o *Optimizer) interval(col string, desired brew.FlavorProfile, p *plan) brew.Interval {
	bound, _ := brew.Bound(col)
	iv := bound
	if col == brew.ColDoseSize && o.cfg.DoseFollowsCup {
		iv = brew.DoseWindow(p.cup, o.cfg.Ratio)
	}

	if w, ok := p.warm[col]; ok && !math.IsNaN(w) && !math.IsInf(w, 0) && o.cfg.WarmStartFraction > 0 {
		half := o.cfg.WarmStartFraction * bound.Width()
		w = bound.Clamp(w)
		if ws, ok := (brew.Interval{Min: w - half, Max: w + half}).Intersect(iv); ok {
			iv = ws
		}
	}

	if col == brew.ColTemperature {
		if b, ok := desired[brew.Bitterness]; ok {
			prior := brew.TemperaturePrior(b)
			window := brew.Interval{Min: prior - o.cfg.TemperaturePriorWidth, Max: prior + o.cfg.TemperaturePriorWidth}
			if pw, ok := window.Intersect(bound); ok {
				iv = pw
			}
		}
	}
	return iv
}

// row builds the raw feature row of a candidate.
func (p *plan) row(c Candidate) brew.Row {
	r := p.base.Clone()
	for i, d := range p.space.Dims {
		r.Numeric[d.Column] = c.X[i]
	}
	r.Categorical[brew.ColBeanType] = c.Bean
	return r
}

// blendBase is the row the blend optimizer scores beans against: every
// free dimension at its warm start value or the middle of its interval.
func (p *plan) blendBase() brew.Row {
	x := make([]float64, len(p.space.Dims))
	for i, d := range p.space.Dims {
		x[i] = (d.Interval.Min + d.Interval.Max) / 2
		if w, ok := p.warm[d.Column]; ok && d.Interval.Contains(w) {
			x[i] = w
		}
	}
	r := p.row(Candidate{X: x})
	delete(r.Categorical, brew.ColBeanType)
	return r
}

// params converts the winning candidate into formatted output parameters.
func (p *plan) params(c Candidate) brew.BrewingParameters {
	out := brew.ParametersFromRow(p.row(c))
	if len(p.blend) > 0 {
		out.BeanBlend = p.blend.Clone()
		if primary := brew.PrimaryInOrder(p.beans, p.blend); primary != "" {
			out.BeanType = primary
		} else {
			out.BeanType = p.blend.Primary()
		}
	}
	return Format(out)
}

// paramsRow is the row the final prediction runs on. It keeps the
// non-searched context features that BrewingParameters does not carry.
//
//nolint:gocritic // value receiver keeps parameters immutable
func (p *plan) paramsRow(params brew.BrewingParameters) brew.Row {
	r := params.Row()
	for col, v := range p.base.Categorical {
		if _, ok := r.Categorical[col]; !ok {
			r.Categorical[col] = v
		}
	}
	return r
}

func normalizeBlend(b brew.BeanBlend) brew.BeanBlend {
	out := make(brew.BeanBlend, len(b))
	for k, v := range b {
		out[brew.NormalizeCategory(k)] += v
	}
	return out
}
