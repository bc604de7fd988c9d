// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

// Package encoding turns raw brewing rows into numeric feature vectors.
//
// # Feature Layout
//
// Encoded columns are the numeric columns in configured order followed by
// one one-hot block per categorical column. Each block lists its categories
// in lexical order and names them "{column}_{value}". The vocabulary always
// contains the "unknown" bucket.
//
// # Modes
//
// In training mode the encoder fits itself: missing numerics are filled
// with the column median, missing categoricals with the column mode, and a
// standard scaler is fitted on the numeric block. In inference mode the
// fitted state is reused and nothing is filled: an absent numeric becomes 0
// in scaled space (the training mean) and an absent or unseen category
// becomes an all-zero block.
//
// # Alignment
//
// Models remember the feature names they were fitted on. [Aligner] maps an
// encoded vector onto that order, filling 0 for names the encoder did not
// produce and dropping names the model does not know.
package encoding
