// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

/*
Package middleware provides HTTP middleware shared by the brewing API.

Key Components:

  - RequestID: request tracking through the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge

Both use the chi middleware signature and are mounted by internal/api:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

Handlers read the ID with GetRequestID or logging.Ctx:

	logging.Ctx(r.Context()).Info().Msg("suggestion served")

PrometheusMetrics labels requests by chi route pattern, so it must run
inside a chi router for the endpoint label to be meaningful. Requests that
match no route share the "unmatched" label.

See Also:

  - internal/api: router and handlers
  - internal/metrics: Prometheus metric definitions
*/
package middleware
