// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

// Package validation provides struct validation using go-playground/validator v10.
//
// The package wraps a thread-safe singleton validator and translates field
// errors into messages that name the JSON field a caller sent, so an error
// for a suggest request reads "temperature must be less than or equal to 96"
// rather than naming the Go struct field.
//
// # Custom Tags
//
//   - flavor_target: the value is one of the five flavor targets, or the
//     legacy "maltiness" synonym
//
// # Usage
//
//	type SuggestRequest struct {
//	    DesiredFlavor map[string]float64 `json:"desired_flavor" validate:"required,min=1,dive,keys,flavor_target,endkeys,gte=0,lte=10"`
//	    BeanList      []string           `json:"bean_list" validate:"omitempty,unique,dive,required"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    msg, details := verr.Summary()
//	    rw.ValidationError(msg, details)
//	    return
//	}
//
// # Thread Safety
//
// GetValidator initialises the validator once; the returned instance caches
// struct metadata and is safe for concurrent use.
package validation
