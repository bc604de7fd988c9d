// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

/*
Package samples stores rated brews in DuckDB.

The brewing_samples table is append-only: feedback adds rows, retraining
reads all of them in recording order. Ratings are stored one column per
flavor target; a NULL means the brewer did not rate that target.

The same connection reads CSV files with read_csv_auto, which serves two
purposes: loading the arabica and robusta quality reference datasets for
clustering, and importing an existing brewing log.

	store, err := samples.Open(cfg.Samples, logger)
	...
	ds, err := store.LoadReference(ctx, "arabica", "/data/arabica.csv")

Scheduled retraining reads through GuardedSource, a gobreaker circuit
breaker around the store.
*/
package samples
