// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

/*
Command brewctl is the operator CLI for the brewing engine.

It works directly on the artifact directory and the DuckDB sample log, so
models trained here are picked up by a running server through its
artifact watcher. Publishing holds the artifact directory lock.

	brewctl import brews.csv            # append rated brews to the sample log
	brewctl train                       # fit on the sample log and publish
	brewctl train --csv brews.csv       # fit on a CSV without touching the log
	brewctl predict --pressure 9 --temperature 93 --extraction-time 28 --dose 18
	brewctl suggest --flavor acidity=7,sweetness=6 --bean arabica --bean robusta
	brewctl blend --flavor bitterness=3 --bean arabica --bean robusta
	brewctl impact --feature temperature --target bitterness
	brewctl status --artifacts

Configuration is read the same way as the server (CONFIG_PATH, config.yaml
and environment variables). Every command accepts --json for machine
readable output.

DuckDB allows a single writer process, so import and train without --csv
fail while the server holds the sample log open.
*/
package main
