// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package encoding

import (
	"sort"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
)

// OneHot encodes one categorical column. Categories are kept sorted.
type OneHot struct {
	Column     string
	Categories []string
}

// FitOneHot builds an encoder over the distinct values, always including
// the unknown bucket.
func FitOneHot(column string, values []string) *OneHot {
	set := map[string]struct{}{brew.UnknownCategory: {}}
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	cats := make([]string, 0, len(set))
	for v := range set {
		cats = append(cats, v)
	}
	sort.Strings(cats)
	return &OneHot{Column: column, Categories: cats}
}

// FeatureNames returns "{column}_{category}" for each category.
func (o *OneHot) FeatureNames() []string {
	names := make([]string, len(o.Categories))
	for i, c := range o.Categories {
		names[i] = FeatureName(o.Column, c)
	}
	return names
}

// Index returns the position of category, or -1 for an unseen value.
func (o *OneHot) Index(category string) int {
	i := sort.SearchStrings(o.Categories, category)
	if i < len(o.Categories) && o.Categories[i] == category {
		return i
	}
	return -1
}

// Clone returns a deep copy.
func (o *OneHot) Clone() *OneHot {
	return &OneHot{Column: o.Column, Categories: append([]string(nil), o.Categories...)}
}

// FeatureName joins a column and category into an encoded feature name.
func FeatureName(column, category string) string {
	return column + "_" + category
}
