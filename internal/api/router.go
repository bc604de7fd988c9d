// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NaomiGonz/AICoffee-Machine/internal/middleware"
)

// RouterConfig holds router-level settings.
type RouterConfig struct {
	Middleware *ChiMiddlewareConfig

	// RequestTimeout bounds every request except training uploads, which
	// are bounded by the engine's training timeout instead.
	RequestTimeout time.Duration
}

// NewRouter builds the chi router for the brewing API.
//
// Middleware order: request ID, real IP, panic recovery, metrics, CORS,
// compression. Rate limiting applies to /api/v1/brew only, so probes and
// scrapes are never throttled.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	mw := NewChiMiddleware(cfg.Middleware)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(mw.CORS())
	r.Use(chimiddleware.Compress(5, "application/json"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1/brew", func(r chi.Router) {
		r.Use(mw.RateLimit())

		r.Post("/train", h.Train)

		r.Group(func(r chi.Router) {
			if cfg.RequestTimeout > 0 {
				r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
			}
			r.Post("/retrain", h.Retrain)
			r.Post("/predict", h.Predict)
			r.Post("/suggest", h.Suggest)
			r.Post("/blend", h.Blend)
			r.Get("/impact", h.Impact)
			r.Post("/feedback", h.Feedback)
			r.Get("/clusters/{id}", h.ClusterInsights)
			r.Get("/status", h.Status)

			r.Get("/samples", h.ListSamples)
			r.Get("/samples/{id}", h.GetSample)
			r.Get("/suggestions", h.ListSuggestions)
			r.Get("/suggestions/{id}", h.GetSuggestion)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
