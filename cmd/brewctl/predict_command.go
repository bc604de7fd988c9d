// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brewer"
)

func newPredictCommand(ctx *commandContext) *cobra.Command {
	var flags brewFlags

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the flavor profile of a brew",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.parameters()
			if err != nil {
				return err
			}
			return ctx.withSession(cmd.Context(), false, func(s *session) error {
				profile, err := s.engine.PredictFlavorProfile(cmd.Context(), params)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]interface{}{"predicted_flavor": profile})
				}
				rows := make([][]string, 0, len(profile))
				for _, target := range profile.Keys() {
					rows = append(rows, []string{target, formatFloat(profile[target], 2)})
				}
				printTable(cmd, []string{"Target", "Rating"}, rows, []columnAlignment{alignLeft, alignRight})
				return nil
			})
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

func newImpactCommand(ctx *commandContext) *cobra.Command {
	var (
		feature string
		target  string
		lo, hi  float64
		points  int
	)

	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Sweep one feature and show the predicted rating of a target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := brewer.ImpactRequest{Feature: feature, Target: target, Points: points}
			minSet, maxSet := cmd.Flags().Changed("min"), cmd.Flags().Changed("max")
			switch {
			case minSet && maxSet:
				req.Range = &brew.Interval{Min: lo, Max: hi}
			case minSet || maxSet:
				return errors.New("--min and --max must be given together")
			}

			return ctx.withSession(cmd.Context(), false, func(s *session) error {
				res, err := s.engine.AnalyzeFeatureImpact(cmd.Context(), req)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s vs %s (model version %d)\n", res.Target, res.Feature, res.ModelVersion)
				rows := make([][]string, 0, len(res.Points))
				for _, p := range res.Points {
					value := p.Category
					if value == "" {
						value = formatFloat(p.Value, 3)
					}
					rows = append(rows, []string{value, formatFloat(p.Prediction, 2)})
				}
				printTable(cmd, []string{res.Feature, res.Target}, rows, []columnAlignment{alignRight, alignRight})
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&feature, "feature", "", "Feature to sweep")
	cmd.Flags().StringVar(&target, "target", "", "Flavor target to predict")
	cmd.Flags().Float64Var(&lo, "min", 0, "Sweep start (requires --max)")
	cmd.Flags().Float64Var(&hi, "max", 0, "Sweep end (requires --min)")
	cmd.Flags().IntVar(&points, "points", 0, "Number of sweep points (0 uses the default)")
	_ = cmd.MarkFlagRequired("feature")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
