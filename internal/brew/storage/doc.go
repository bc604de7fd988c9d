// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

// Package storage persists trained artifacts and the manifest that commits them.
//
// # Storage Format
//
// Every artifact is a gob-encoded, gzip-compressed file carrying its
// metadata and a SHA-256 checksum of the uncompressed payload:
//
//	filename: {artifact}_v{version}.gob.gz
//
//	artifacts:
//	  model_{target}     one fitted regressor per flavor target
//	  encoder_{column}   one fitted one-hot encoder per categorical column
//	  scaler_{target}    the numeric scaler, recorded once per target
//
// # Commit Protocol
//
// A training run writes every artifact under a new version and then
// replaces manifest.json through a temporary file and rename. Readers
// resolve artifacts only through the manifest, so a crash mid-write leaves
// the previous version fully readable and the partial files unreferenced.
//
// # Concurrency
//
// Store methods are safe for concurrent use within a process. Writers in
// separate processes serialize through [Store.Lock], an advisory lock on
// the .lock file in the artifact directory.
package storage
