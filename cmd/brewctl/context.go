// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/storage"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brewer"
	"github.com/NaomiGonz/AICoffee-Machine/internal/config"
	"github.com/NaomiGonz/AICoffee-Machine/internal/logging"
	"github.com/NaomiGonz/AICoffee-Machine/internal/samples"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
	}
}

// ensureConfig loads the configuration once and points the global logger
// at stderr so stdout carries only command output.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if c.config == nil {
			if path := strings.TrimSpace(*c.configFlag); path != "" {
				if err := os.Setenv(config.ConfigPathEnvVar, path); err != nil {
					c.configErr = fmt.Errorf("set config path: %w", err)
					return
				}
			}
			cfg, err := config.Load()
			if err != nil {
				c.configErr = fmt.Errorf("load config: %w", err)
				return
			}
			c.config = cfg
		}

		logCfg := c.config.Logging
		logCfg.Format = "console"
		logCfg.Output = os.Stderr
		if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
			logCfg.Level = level
		}
		logging.Init(logCfg)
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// session is an engine opened on the configured artifact directory.
type session struct {
	samples   *samples.Store
	artifacts *storage.Store
	engine    *brewer.Engine
	logger    zerolog.Logger
}

// openSession builds an engine and loads the newest published models.
// With sampleLog false the sample store is in memory and only serves CSV
// reads, so the command never contends for the DuckDB file.
func (c *commandContext) openSession(ctx context.Context, sampleLog bool) (_ *session, err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	s := &session{logger: logging.WithComponent("brewctl")}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	samplesCfg := cfg.Samples
	if !sampleLog {
		samplesCfg.Path = ""
	}
	if s.samples, err = samples.Open(samplesCfg, s.logger); err != nil {
		return nil, fmt.Errorf("open sample store: %w", err)
	}
	if s.artifacts, err = storage.NewStore(cfg.Artifacts.Dir); err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}

	opts := []brewer.Option{brewer.WithArtifactStore(s.artifacts)}
	if sampleLog {
		opts = append(opts, brewer.WithSampleSource(s.samples), brewer.WithSampleSink(s.samples))
	}
	if s.engine, err = brewer.New(brewer.FromAppConfig(cfg), s.logger, opts...); err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	clustering, err := brewer.LoadClustering(ctx, cfg.Quality, s.samples)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Quality clustering unavailable")
	} else if clustering != nil {
		s.engine.SetClustering(clustering)
	}

	if _, err := s.engine.Reload(ctx); err != nil {
		s.logger.Warn().Err(err).Str("dir", cfg.Artifacts.Dir).Msg("Failed to load published models")
	}
	return s, nil
}

func (c *commandContext) withSession(ctx context.Context, sampleLog bool, fn func(*session) error) error {
	s, err := c.openSession(ctx, sampleLog)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func (s *session) Close() {
	if s.samples != nil {
		if err := s.samples.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing sample store")
		}
	}
}

// describeError expands validation failures into one line per field.
func describeError(err error) string {
	var verr *brew.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		lines := make([]string, 0, len(verr.Fields)+1)
		lines = append(lines, "invalid input:")
		for _, f := range verr.Fields {
			lines = append(lines, fmt.Sprintf("  %s: %s", f.Field, f.Message))
		}
		return strings.Join(lines, "\n")
	}
	if errors.Is(err, brew.ErrModelNotTrained) {
		return err.Error() + " (run `brewctl train` first)"
	}
	return err.Error()
}
