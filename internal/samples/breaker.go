// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package samples

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/metrics"
)

// Source supplies the samples a retrain runs on.
type Source interface {
	LoadSamples(ctx context.Context) ([]brew.BrewingSample, error)
}

// BreakerConfig configures GuardedSource.
type BreakerConfig struct {
	Name string

	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32

	// Timeout is how long the breaker stays open before a trial read.
	Timeout time.Duration
}

// GuardedSource wraps a Source in a circuit breaker so a failing database
// is not queried on every retrain tick. While open, reads fail fast with
// gobreaker.ErrOpenState.
type GuardedSource struct {
	src Source
	cb  *gobreaker.CircuitBreaker[[]brew.BrewingSample]
}

// NewGuardedSource wraps src.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewGuardedSource(src Source, cfg BreakerConfig, logger zerolog.Logger) *GuardedSource {
	if cfg.Name == "" {
		cfg.Name = "samples"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	logger = logger.With().Str("component", "samples_breaker").Logger()

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))

	return &GuardedSource{
		src: src,
		cb:  gobreaker.NewCircuitBreaker[[]brew.BrewingSample](settings),
	}
}

// LoadSamples reads through the breaker.
func (g *GuardedSource) LoadSamples(ctx context.Context) ([]brew.BrewingSample, error) {
	return g.cb.Execute(func() ([]brew.BrewingSample, error) {
		return g.src.LoadSamples(ctx)
	})
}

// State returns the breaker state name: closed, half-open or open.
func (g *GuardedSource) State() string {
	return g.cb.State().String()
}
