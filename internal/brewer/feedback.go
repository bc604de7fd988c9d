// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package brewer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/quality"
	"github.com/NaomiGonz/AICoffee-Machine/internal/metrics"
	"github.com/NaomiGonz/AICoffee-Machine/internal/suggestions"
)

// ErrNoSampleSink is returned by RecordFeedback without a sample sink.
var ErrNoSampleSink = errors.New("no sample sink configured")

// Feedback is a rating of one brew. Either SuggestionID names a recorded
// suggestion whose parameters were brewed, or Parameters are given
// explicitly. Explicit parameters win when both are set.
type Feedback struct {
	SuggestionID string
	Parameters   *brew.BrewingParameters
	Ratings      brew.FlavorProfile
}

// RecordFeedback appends a rated brew to the sample log. The sample is
// used by the next training run.
//
//nolint:gocritic // feedback passed by value is not mutated
func (e *Engine) RecordFeedback(ctx context.Context, fb Feedback) (brew.BrewingSample, error) {
	if e.sink == nil {
		return brew.BrewingSample{}, ErrNoSampleSink
	}
	if fb.SuggestionID == "" && fb.Parameters == nil {
		return brew.BrewingSample{}, brew.NewValidationError("parameters", "either suggestion_id or parameters is required")
	}

	source := "parameters"
	sample := brew.BrewingSample{Ratings: fb.Ratings, RecordedAt: time.Now().UTC()}
	if fb.Parameters != nil {
		sample.Parameters = *fb.Parameters
	}

	if fb.SuggestionID != "" {
		if e.suggestions == nil {
			return brew.BrewingSample{}, ErrNoSuggestionStore
		}
		rec, err := e.suggestions.Get(ctx, fb.SuggestionID)
		if err != nil {
			return brew.BrewingSample{}, err
		}
		if rec.RatedSampleID != "" {
			return brew.BrewingSample{}, fmt.Errorf("suggestion %s: %w", fb.SuggestionID, suggestions.ErrAlreadyRated)
		}
		if fb.Parameters == nil {
			sample.Parameters = rec.Parameters
		}
		sample.SuggestionID = rec.ID
		source = "suggestion"
	}

	stored, err := e.sink.Append(ctx, sample)
	if err != nil {
		return brew.BrewingSample{}, err
	}
	if sample.SuggestionID != "" {
		if err := e.suggestions.MarkRated(ctx, sample.SuggestionID, stored.ID); err != nil {
			e.logger.Warn().Err(err).
				Str("suggestion_id", sample.SuggestionID).
				Str("sample_id", stored.ID).
				Msg("sample recorded but suggestion could not be marked rated")
		}
	}
	metrics.FeedbackRecorded.WithLabelValues(source).Inc()
	e.logger.Info().Str("sample_id", stored.ID).Str("source", source).Msg("brewing feedback recorded")
	return stored, nil
}

// ClusterInsights summarizes one quality cluster.
func (e *Engine) ClusterInsights(id int) (*quality.Insights, error) {
	c := e.clustering.Load()
	if c == nil {
		return nil, ErrClusteringUnavailable
	}
	return c.Insights(id)
}

// Clusters reports the number of quality clusters, or zero when none are
// loaded.
func (e *Engine) Clusters() int {
	if c := e.clustering.Load(); c != nil {
		return c.K()
	}
	return 0
}
