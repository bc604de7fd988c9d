// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brewer"
)

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	var (
		flags      brewFlags
		flavor     map[string]string
		beans      []string
		seed       int64
		candidates int
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest brewing parameters for a desired flavor",
		Long: "Search for brewing parameters whose predicted flavor is closest to --flavor.\n" +
			"Parameter flags that are set are held fixed; two or more --bean values also choose a blend.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			desired, err := parseFlavor(flavor)
			if err != nil {
				return err
			}
			req := brewer.SuggestRequest{
				Desired:  desired,
				Fixed:    flags.fixed(cmd.Flags()),
				BeanList: beans,
				Seed:     seed,
			}
			if cmd.Flags().Changed("candidates") {
				req.Candidates = &candidates
			}

			return ctx.withSession(cmd.Context(), false, func(s *session) error {
				sug, err := s.engine.SuggestBrewingParameters(cmd.Context(), req)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, sug)
				}
				renderSuggestion(cmd, desired.Normalize(), sug)
				return nil
			})
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringToStringVar(&flavor, "flavor", nil, "Desired ratings, e.g. acidity=7,sweetness=6")
	cmd.Flags().StringSliceVar(&beans, "bean", nil, "Candidate bean (repeatable)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Search seed (0 uses the configured value)")
	cmd.Flags().IntVar(&candidates, "candidates", 0, "Search budget override")
	_ = cmd.MarkFlagRequired("flavor")
	return cmd
}

func renderSuggestion(cmd *cobra.Command, desired brew.FlavorProfile, sug *brewer.Suggestion) {
	out := cmd.OutOrStdout()
	if sug.Degraded {
		fmt.Fprintf(out, "Degraded suggestion (%s): default parameters returned\n", sug.DegradedReason)
	}
	p := sug.Parameters
	printTable(cmd, []string{"Parameter", "Value"}, [][]string{
		{"extraction_pressure", formatFloat(p.Pressure, 2)},
		{"temperature", formatFloat(p.Temperature, 1)},
		{"extraction_time", formatFloat(p.ExtractionTime, 1)},
		{"dose_size", formatFloat(p.DoseSize, 1)},
		{"cup_size", formatFloat(p.CupSize, 0)},
		{"bean_type", p.BeanType},
		{"bean_blend", formatBlend(p.BeanBlend)},
	}, []columnAlignment{alignLeft, alignRight})

	if len(sug.Predicted) > 0 {
		rows := make([][]string, 0, len(sug.Predicted))
		for _, target := range sug.Predicted.Keys() {
			want := "-"
			if v, ok := desired[target]; ok {
				want = formatFloat(v, 1)
			}
			rows = append(rows, []string{target, want, formatFloat(sug.Predicted[target], 2)})
		}
		printTable(cmd, []string{"Target", "Desired", "Predicted"}, rows, []columnAlignment{alignLeft, alignRight, alignRight})
	}

	fmt.Fprintf(out, "Distance %s, stage %s, %d candidates evaluated, model version %d, seed %d\n",
		formatOptional(sug.Distance, 3), sug.Stage, sug.Evaluated, sug.ModelVersion, sug.Seed)
	if sug.TimedOut {
		fmt.Fprintln(out, "Search timed out; best candidate so far returned")
	}
	if b := sug.Blend; b != nil && b.Fallback {
		fmt.Fprintf(out, "Blend fell back to %s: %s\n", b.Primary, b.Reason)
	}
	fmt.Fprintf(out, "Suggestion ID %s\n", sug.ID)
}

func newBlendCommand(ctx *commandContext) *cobra.Command {
	var (
		flags  brewFlags
		flavor map[string]string
		beans  []string
	)

	cmd := &cobra.Command{
		Use:   "blend",
		Short: "Find the bean blend closest to a desired flavor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			desired, err := parseFlavor(flavor)
			if err != nil {
				return err
			}
			base, err := flags.parameters()
			if err != nil {
				return err
			}
			return ctx.withSession(cmd.Context(), false, func(s *session) error {
				res, err := s.engine.OptimizeBlend(cmd.Context(), brewer.BlendRequest{Beans: beans, Desired: desired, Base: base})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, res)
				}
				rows := make([][]string, 0, len(res.Blend))
				for _, bean := range sortedKeys(res.Blend) {
					rows = append(rows, []string{bean, fmt.Sprintf("%d%%", res.Blend[bean])})
				}
				printTable(cmd, []string{"Bean", "Share"}, rows, []columnAlignment{alignLeft, alignRight})
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Primary %s, distance %s\n", res.Primary, formatOptional(res.Distance, 3))
				if res.Fallback {
					fmt.Fprintf(out, "Fallback: %s\n", res.Reason)
				}
				return nil
			})
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringToStringVar(&flavor, "flavor", nil, "Desired ratings, e.g. bitterness=3,sweetness=7")
	cmd.Flags().StringSliceVar(&beans, "bean", nil, "Bean to blend; a single bean is the whole blend")
	_ = cmd.MarkFlagRequired("flavor")
	return cmd
}
