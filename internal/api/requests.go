// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

// Request bodies and query parameters of the brewing API, validated with
// go-playground/validator tags through internal/validation. Range checks
// on flavor ratings and brewing parameters stay in the brew package so the
// CLI and the API reject the same inputs.

package api

import (
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

// TrainRequest is the body of POST /api/v1/brew/train. An empty sample
// list retrains from the stored sample log.
type TrainRequest struct {
	Samples  []brew.BrewingSample `json:"samples" validate:"omitempty,max=100000"`
	TestSize float64              `json:"test_size" validate:"omitempty,gt=0,lt=1"`
	Seed     int64                `json:"seed"`
}

// SuggestRequest is the body of POST /api/v1/brew/suggest.
type SuggestRequest struct {
	Desired   brew.FlavorProfile            `json:"desired_flavor" validate:"required"`
	Fixed     brew.PartialBrewingParameters `json:"fixed_params"`
	BeanList  []string                      `json:"bean_list" validate:"omitempty,max=16,dive,required,max=64"`
	WarmStart map[string]float64            `json:"warm_start,omitempty"`
	Seed      int64                         `json:"seed,omitempty"`
	// Candidates overrides the global search budget for this request.
	Candidates *int `json:"candidates,omitempty" validate:"omitempty,gte=1,lte=100000"`
}

// BlendRequest is the body of POST /api/v1/brew/blend.
type BlendRequest struct {
	Beans   []string               `json:"bean_list" validate:"required,min=1,max=16,dive,required,max=64"`
	Desired brew.FlavorProfile     `json:"desired_flavor" validate:"required"`
	Base    brew.BrewingParameters `json:"base_params"`
}

// ImpactQuery holds the query parameters of GET /api/v1/brew/impact.
type ImpactQuery struct {
	Feature string   `json:"feature" validate:"required,max=64"`
	Target  string   `json:"target" validate:"required,flavor_target"`
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	Points  int      `json:"points" validate:"omitempty,gte=2,lte=500"`
}

// FeedbackRequest is the body of POST /api/v1/brew/feedback.
type FeedbackRequest struct {
	SuggestionID string                  `json:"suggestion_id" validate:"omitempty,uuid"`
	Parameters   *brew.BrewingParameters `json:"parameters,omitempty"`
	Ratings      brew.FlavorProfile      `json:"ratings" validate:"required"`
}

// SamplesQuery holds the query parameters of GET /api/v1/brew/samples.
type SamplesQuery struct {
	BeanType string `json:"bean_type" validate:"omitempty,max=64"`
	Since    string `json:"since" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Limit    int    `json:"limit" validate:"gte=1,lte=10000"`
}

// ListQuery holds the limit of list endpoints without filters.
type ListQuery struct {
	Limit int `json:"limit" validate:"gte=1,lte=1000"`
}
