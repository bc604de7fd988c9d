// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes restart behavior for every supervisor in the tree. Zero
// fields take the value from DefaultTreeConfig.
type TreeConfig struct {
	// FailureThreshold is how many failures a supervisor tolerates before
	// backing off.
	FailureThreshold float64
	// FailureDecay is the half-life of the failure count, in seconds.
	FailureDecay    float64
	FailureBackoff  time.Duration
	ShutdownTimeout time.Duration
}

func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	def := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = def.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = def.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = def.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec(hook suture.EventHook) suture.Spec {
	return suture.Spec{
		EventHook:        hook,
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// SupervisorTree is the root supervisor with one child per layer:
//
//	aicoffee
//	├── data-layer      artifact watcher, suggestion GC, cache sweep
//	├── training-layer  scheduled and triggered retraining
//	└── api-layer       HTTP server
//
// Each layer restarts its own services, so a crashing retrain loop leaves
// the API serving the last published models.
type SupervisorTree struct {
	root     *suture.Supervisor
	data     *suture.Supervisor
	training *suture.Supervisor
	api      *suture.Supervisor
	config   TreeConfig
}

// NewSupervisorTree builds the tree. Supervisor events (restarts, backoff,
// timeouts) are logged through logger.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()

	// Only the root gets the hook; children report through it.
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &SupervisorTree{
		root:     suture.New("aicoffee", config.spec(hook)),
		data:     suture.New("data-layer", config.spec(nil)),
		training: suture.New("training-layer", config.spec(nil)),
		api:      suture.New("api-layer", config.spec(nil)),
		config:   config,
	}
	for _, layer := range []*suture.Supervisor{t.data, t.training, t.api} {
		t.root.Add(layer)
	}
	return t, nil
}

func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

func (t *SupervisorTree) AddDataService(svc suture.Service) suture.ServiceToken {
	return t.data.Add(svc)
}

func (t *SupervisorTree) AddTrainingService(svc suture.Service) suture.ServiceToken {
	return t.training.Add(svc)
}

func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in its own goroutine. The channel receives
// exactly one value when the tree stops and is never closed.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that outlived ShutdownTimeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
