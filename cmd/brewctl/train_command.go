// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/training"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brewer"
	"github.com/NaomiGonz/AICoffee-Machine/internal/samples"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Append rated brews from CSV files to the sample log",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), true, func(s *session) error {
				out := cmd.OutOrStdout()
				total := 0
				for _, path := range args {
					n, err := s.samples.ImportCSV(cmd.Context(), path)
					if err != nil {
						return fmt.Errorf("import %s: %w", path, err)
					}
					total += n
					if !ctx.jsonOutput() {
						fmt.Fprintf(out, "Imported %d samples from %s\n", n, path)
					}
				}
				count, err := s.samples.Count(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]int{"imported": total, "total": count})
				}
				fmt.Fprintf(out, "Sample log now holds %d samples\n", count)
				return nil
			})
		},
	}
}

func newTrainCommand(ctx *commandContext) *cobra.Command {
	var (
		csvPath  string
		testSize float64
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit models and publish them to the artifact directory",
		Long: "Fit one model per flavor target and publish the new version to the artifact directory.\n" +
			"Without --csv the samples come from the sample log.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), csvPath == "", func(s *session) error {
				var (
					batch []brew.BrewingSample
					err   error
				)
				if csvPath != "" {
					raw, rerr := s.samples.ReadCSV(cmd.Context(), csvPath)
					if rerr != nil {
						return rerr
					}
					batch, err = samples.ParseSamples(raw)
				} else {
					batch, err = s.samples.LoadSamples(cmd.Context())
				}
				if err != nil {
					return err
				}

				report, err := s.engine.Train(cmd.Context(), batch, brewer.TrainOptions{TestSize: testSize, Seed: seed})
				if report != nil {
					if ctx.jsonOutput() {
						if jerr := writeJSON(cmd, report); jerr != nil {
							return jerr
						}
					} else {
						renderReport(cmd, report)
					}
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Train on a brewing log CSV instead of the sample log")
	cmd.Flags().Float64Var(&testSize, "test-size", 0, "Held-out fraction (0 uses the configured value)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Split and model seed (0 uses the configured value)")
	return cmd
}

func renderReport(cmd *cobra.Command, report *training.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s, version %d, %d samples, %s\n",
		report.RunID, report.Status, report.Version, report.SampleCount,
		(time.Duration(report.DurationMS) * time.Millisecond).String())

	rows := make([][]string, 0, len(report.Targets))
	for _, target := range sortedKeys(report.Targets) {
		tr := report.Targets[target]
		row := []string{target, tr.Status, tr.Family, strconv.Itoa(tr.Samples), "-", "-", tr.Reason}
		if tr.Status == training.StatusTrained {
			row[4] = formatFloat(tr.Metrics.MSE, 4)
			row[5] = formatFloat(tr.Metrics.R2, 3)
		}
		rows = append(rows, row)
	}
	printTable(cmd,
		[]string{"Target", "Status", "Family", "Samples", "MSE", "R²", "Reason"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)

	if sum := report.Summary; sum != nil && len(sum.TopFeatures) > 0 {
		fmt.Fprintln(out, "Top features:")
		for _, target := range sortedKeys(sum.TopFeatures) {
			names := make([]string, 0, len(sum.TopFeatures[target]))
			for _, fw := range sum.TopFeatures[target] {
				names = append(names, fw.Feature)
			}
			fmt.Fprintf(out, "  %s: %s\n", target, strings.Join(names, ", "))
		}
	}
}
