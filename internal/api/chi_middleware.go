// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/NaomiGonz/AICoffee-Machine/internal/config"
)

// ChiMiddlewareConfig configures the CORS and rate limiting middleware.
// CORSMaxAge is in seconds.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
	// RateLimitKeyFunc buckets clients; nil keys by remote IP.
	RateLimitKeyFunc httprate.KeyFunc
}

// DefaultChiMiddlewareConfig allows no cross-origin callers and 100
// requests per minute per client. Every API route is a GET or POST.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		CORSExposedHeaders: []string{"X-Request-ID"},
		CORSMaxAge:         int((24 * time.Hour).Seconds()),
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
	}
}

// ChiMiddlewareConfigFromServer applies the server section on top of the
// defaults. A zero request budget turns rate limiting off.
//
//nolint:gocritic // config section passed by value is not mutated
func ChiMiddlewareConfigFromServer(s config.ServerConfig) *ChiMiddlewareConfig {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = append([]string(nil), s.CORSOrigins...)
	cfg.RateLimitRequests = s.RateLimitRequests
	cfg.RateLimitWindow = s.RateLimitWindow
	cfg.RateLimitDisabled = s.RateLimitRequests == 0
	return cfg
}

// ChiMiddleware holds middleware built once per router.
type ChiMiddleware struct {
	cors  func(http.Handler) http.Handler
	limit func(http.Handler) http.Handler
}

// NewChiMiddleware builds the middleware for cfg; nil means defaults.
func NewChiMiddleware(cfg *ChiMiddlewareConfig) *ChiMiddleware {
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
	}
	return &ChiMiddleware{
		cors: cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   cfg.CORSAllowedMethods,
			AllowedHeaders:   cfg.CORSAllowedHeaders,
			ExposedHeaders:   cfg.CORSExposedHeaders,
			AllowCredentials: cfg.CORSAllowCredentials,
			MaxAge:           cfg.CORSMaxAge,
		}),
		limit: rateLimiter(cfg),
	}
}

func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit rejects clients over budget with a 429 envelope.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.limit
}

func rateLimiter(cfg *ChiMiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled || cfg.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	key := cfg.RateLimitKeyFunc
	if key == nil {
		key = httprate.KeyByIP
	}
	return httprate.Limit(cfg.RateLimitRequests, cfg.RateLimitWindow,
		httprate.WithKeyFuncs(key),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			NewResponseWriter(w, r).TooManyRequests("rate limit exceeded")
		}),
	)
}
