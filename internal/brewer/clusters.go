// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package brewer

import (
	"context"
	"fmt"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/quality"
)

// ReferenceLoader reads a coffee quality reference CSV. *samples.Store
// implements it.
type ReferenceLoader interface {
	LoadReference(ctx context.Context, beanType, path string) (*quality.Dataset, error)
}

// LoadClustering reads the configured reference datasets and fits the
// quality clusters. It returns nil without error when enrichment is off
// or no reference path is configured.
//
//nolint:gocritic // config passed by value is not mutated
func LoadClustering(ctx context.Context, cfg quality.Config, loader ReferenceLoader) (*quality.Clustering, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var sets []*quality.Dataset
	for _, ref := range []struct{ beanType, path string }{
		{"arabica", cfg.ArabicaPath},
		{"robusta", cfg.RobustaPath},
	} {
		if ref.path == "" {
			continue
		}
		ds, err := loader.LoadReference(ctx, ref.beanType, ref.path)
		if err != nil {
			return nil, fmt.Errorf("load %s reference: %w", ref.beanType, err)
		}
		sets = append(sets, ds)
	}
	if len(sets) == 0 {
		return nil, nil
	}

	c, err := quality.Fit(ctx, quality.Combine(sets...), cfg)
	if err != nil {
		return nil, fmt.Errorf("fit quality clusters: %w", err)
	}
	return c, nil
}
