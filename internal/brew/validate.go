// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package brew

import (
	"math"

	"github.com/NaomiGonz/AICoffee-Machine/internal/validation"
)

// ValidateDesired checks a desired flavor profile. The profile must be
// normalized first so the legacy maltiness key has been rewritten.
func ValidateDesired(desired FlavorProfile) error {
	verr := &ValidationError{}
	if len(desired) == 0 {
		verr.Add("desired_flavor", "desired_flavor must name at least one flavor target")
		return verr
	}
	for _, k := range desired.Keys() {
		v := desired[k]
		switch {
		case !IsTarget(k):
			verr.Add("desired_flavor."+k, "%s is not a known flavor target", k)
		case math.IsNaN(v) || math.IsInf(v, 0):
			verr.Add("desired_flavor."+k, "%s must be a finite number", k)
		case v < FlavorMin || v > FlavorMax:
			verr.Add("desired_flavor."+k, "%s must be between %.0f and %.0f", k, FlavorMin, FlavorMax)
		}
	}
	return verr.OrNil()
}

// ValidateFixed checks caller-fixed parameters against the physical bounds.
//
//nolint:gocritic // value receiver keeps parameters immutable
func ValidateFixed(fixed PartialBrewingParameters) error {
	verr := &ValidationError{}
	if rve := validation.ValidateStruct(&fixed); rve != nil {
		for _, fe := range rve.Fields {
			verr.Fields = append(verr.Fields, FieldError{
				Field:   "fixed_params." + fe.Field,
				Tag:     fe.Tag,
				Message: fe.Message,
			})
		}
	}
	if len(fixed.BeanBlend) > 0 && !fixed.BeanBlend.Valid() {
		verr.Add("fixed_params.bean_blend", "bean_blend entries must be positive and sum to 100")
	}
	return verr.OrNil()
}

// ValidateBeanList checks a list of candidate beans for blending.
func ValidateBeanList(beans []string, minLen int) error {
	verr := &ValidationError{}
	if len(beans) < minLen {
		verr.Add("bean_list", "bean_list must contain at least %d beans", minLen)
		return verr
	}
	seen := make(map[string]struct{}, len(beans))
	for _, b := range beans {
		if NormalizeCategory(b) == "" {
			verr.Add("bean_list", "bean_list entries must be non-empty")
			continue
		}
		if _, dup := seen[b]; dup {
			verr.Add("bean_list", "bean_list contains duplicate bean %q", b)
		}
		seen[b] = struct{}{}
	}
	return verr.OrNil()
}

// NormalizeBeans lower-cases and trims bean names.
func NormalizeBeans(beans []string) []string {
	if beans == nil {
		return nil
	}
	out := make([]string, len(beans))
	for i, b := range beans {
		out[i] = NormalizeCategory(b)
	}
	return out
}
