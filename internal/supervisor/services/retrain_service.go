// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/training"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brewer"
)

// ErrRetrainRateLimited is returned by Trigger when manual retrains come in
// faster than the configured rate.
var ErrRetrainRateLimited = errors.New("retrain trigger rate limit exceeded")

// Retrainer retrains models from the sample log. *brewer.Engine
// implements it.
type Retrainer interface {
	Retrain(ctx context.Context) (*training.Report, error)
}

// RetrainServiceConfig holds configuration for the retrain service.
type RetrainServiceConfig struct {
	// TrainOnStartup retrains when the service starts.
	TrainOnStartup bool

	// TrainInterval is how often to retrain. Zero or negative disables
	// scheduled retraining; manual triggers still work.
	TrainInterval time.Duration

	// TriggersPerHour bounds manual triggers. Zero disables the limit.
	TriggersPerHour int
}

// RetrainService retrains on startup, on a schedule and on demand.
type RetrainService struct {
	engine  Retrainer
	config  RetrainServiceConfig
	limiter *rate.Limiter
	trigger chan struct{}
	logger  zerolog.Logger
	name    string
}

// NewRetrainService creates a new retrain service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetrainService(engine Retrainer, cfg RetrainServiceConfig, logger zerolog.Logger) *RetrainService {
	limit := rate.Inf
	burst := 1
	if cfg.TriggersPerHour > 0 {
		limit = rate.Every(time.Hour / time.Duration(cfg.TriggersPerHour))
		burst = cfg.TriggersPerHour
	}
	return &RetrainService{
		engine:  engine,
		config:  cfg,
		limiter: rate.NewLimiter(limit, burst),
		trigger: make(chan struct{}, 1),
		logger:  logger.With().Str("service", "retrain").Logger(),
		name:    "retrain-service",
	}
}

// Trigger requests a retrain. Requests made while one is already queued
// are coalesced into it.
func (s *RetrainService) Trigger() error {
	if !s.limiter.Allow() {
		return ErrRetrainRateLimited
	}
	select {
	case s.trigger <- struct{}{}:
	default:
	}
	return nil
}

// Serve implements suture.Service.
func (s *RetrainService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("train_interval", s.config.TrainInterval).
		Msg("retrain service starting")

	if s.config.TrainOnStartup {
		s.retrain(ctx, "startup")
	}

	var tick <-chan time.Time
	if s.config.TrainInterval > 0 {
		ticker := time.NewTicker(s.config.TrainInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("retrain service shutting down")
			return ctx.Err()
		case <-tick:
			s.retrain(ctx, "schedule")
		case <-s.trigger:
			s.retrain(ctx, "manual")
		}
	}
}

// retrain runs one cycle. Failures are logged and never stop the service.
func (s *RetrainService) retrain(ctx context.Context, reason string) {
	start := time.Now()
	logger := s.logger.With().Str("reason", reason).Logger()
	logger.Debug().Msg("retrain triggered")

	report, err := s.engine.Retrain(ctx)
	switch {
	case err == nil:
		logger.Info().
			Int("version", report.Version).
			Int("samples", report.SampleCount).
			Dur("duration", time.Since(start)).
			Msg("retrain complete")
	case errors.Is(err, brew.ErrInsufficientData):
		logger.Info().Err(err).Msg("not enough samples to retrain yet")
	case errors.Is(err, brewer.ErrTrainingInProgress):
		logger.Debug().Msg("training already running, skipping")
	case ctx.Err() != nil:
		logger.Debug().Err(err).Msg("retrain interrupted by shutdown")
	default:
		logger.Warn().Err(err).Msg("retrain failed, will retry on the next trigger")
	}
}

// String returns the service name for logging.
func (s *RetrainService) String() string {
	return s.name
}
