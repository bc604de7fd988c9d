// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// HTTPServer is the lifecycle subset of *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs the brewing API under supervision:
//
//	server := &http.Server{Addr: cfg.Server.Addr(), Handler: router}
//	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps server. In-flight requests get
// shutdownTimeout to finish once the supervisor stops; a non-positive
// value means 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve runs the listener and a shutdown watcher side by side. A listener
// failure ends Serve with that error so the supervisor restarts it.
// Cancellation drains the server and returns ctx.Err().
func (h *HTTPServerService) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := h.server.ListenAndServe()
		if ctx.Err() != nil && (err == nil || errors.Is(err, http.ErrServerClosed)) {
			return nil
		}
		if err == nil {
			err = http.ErrServerClosed
		}
		return fmt.Errorf("http server failed: %w", err)
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() == nil {
			// The listener failed; nothing to drain.
			return nil
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (h *HTTPServerService) String() string {
	return "http-server"
}
