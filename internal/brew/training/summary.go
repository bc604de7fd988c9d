// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package training

import (
	"sort"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/registry"
)

// topFeatureCount is the number of features listed per target in a summary.
const topFeatureCount = 5

// FeatureWeight pairs a feature with its importance.
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Summary aggregates per-target results of a run.
type Summary struct {
	TrainedTargets int                        `json:"trained_targets"`
	SkippedTargets []string                   `json:"skipped_targets,omitempty"`
	MeanMSE        float64                    `json:"mean_mse"`
	MeanR2         float64                    `json:"mean_r2"`
	BestTarget     string                     `json:"best_target"`
	WorstTarget    string                     `json:"worst_target"`
	Families       map[string]int             `json:"families"`
	TopFeatures    map[string][]FeatureWeight `json:"top_features,omitempty"`
}

// Summarize builds a summary from target reports and fitted models.
func Summarize(reports map[string]TargetReport, models map[string]*registry.Model) *Summary {
	s := &Summary{
		Families:    make(map[string]int),
		TopFeatures: make(map[string][]FeatureWeight),
	}

	targets := make([]string, 0, len(reports))
	for t := range reports {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	bestR2, worstR2 := 0.0, 0.0
	for _, t := range targets {
		m, ok := models[t]
		if !ok {
			s.SkippedTargets = append(s.SkippedTargets, t)
			continue
		}
		s.TrainedTargets++
		s.Families[m.Family]++
		s.MeanMSE += m.Metrics.MSE
		s.MeanR2 += m.Metrics.R2
		if s.BestTarget == "" || m.Metrics.R2 > bestR2 {
			s.BestTarget, bestR2 = t, m.Metrics.R2
		}
		if s.WorstTarget == "" || m.Metrics.R2 < worstR2 {
			s.WorstTarget, worstR2 = t, m.Metrics.R2
		}
		if top := TopFeatures(m.Metrics.FeatureImportance, topFeatureCount); len(top) > 0 {
			s.TopFeatures[t] = top
		}
	}
	if s.TrainedTargets > 0 {
		s.MeanMSE /= float64(s.TrainedTargets)
		s.MeanR2 /= float64(s.TrainedTargets)
	}
	return s
}

// TopFeatures returns the n most important features, ties broken by name.
func TopFeatures(importance map[string]float64, n int) []FeatureWeight {
	out := make([]FeatureWeight, 0, len(importance))
	for f, v := range importance {
		out = append(out, FeatureWeight{Feature: f, Importance: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].Feature < out[j].Feature
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
