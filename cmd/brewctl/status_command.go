// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/NaomiGonz/AICoffee-Machine/internal/brew/storage"
	"github.com/NaomiGonz/AICoffee-Machine/internal/brewer"
)

type statusOutput struct {
	Status    brewer.Status              `json:"status"`
	Artifacts []storage.ArtifactMetadata `json:"artifacts,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var listArtifacts bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the published models and their metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), false, func(s *session) error {
				res := statusOutput{Status: s.engine.Status(cmd.Context())}
				if listArtifacts {
					arts, err := s.engine.Artifacts(cmd.Context())
					if err != nil {
						return err
					}
					res.Artifacts = arts
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, res)
				}
				renderStatus(cmd, &res)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&listArtifacts, "artifacts", false, "Also list every stored artifact")
	return cmd
}

func renderStatus(cmd *cobra.Command, res *statusOutput) {
	out := cmd.OutOrStdout()
	st := res.Status
	if st.ModelVersion == 0 {
		fmt.Fprintln(out, "No published models")
	} else {
		fmt.Fprintf(out, "Model version %d (run %s), trained %s on %d samples\n",
			st.ModelVersion, st.ModelRunID, st.TrainedAt.Format(time.RFC3339), st.SampleCount)
		fmt.Fprintf(out, "Cluster enrichment: %s, clusters: %d\n", yesNo(st.ClusterEnrichment), st.Clusters)

		rows := make([][]string, 0, len(st.Targets))
		for _, target := range sortedKeys(st.Targets) {
			ts := st.Targets[target]
			rows = append(rows, []string{
				target,
				ts.Family,
				formatFloat(ts.Metrics.MSE, 4),
				formatFloat(ts.Metrics.MAE, 4),
				formatFloat(ts.Metrics.R2, 3),
				strconv.Itoa(ts.Metrics.TrainSize),
				strconv.Itoa(ts.Metrics.TestSize),
			})
		}
		printTable(cmd,
			[]string{"Target", "Family", "MSE", "MAE", "R²", "Train", "Test"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
		)
	}

	if len(res.Artifacts) > 0 {
		rows := make([][]string, 0, len(res.Artifacts))
		for _, a := range res.Artifacts {
			rows = append(rows, []string{
				a.Name,
				a.Kind,
				strconv.Itoa(a.Version),
				strconv.Itoa(a.SampleCount),
				strconv.FormatInt(a.SizeBytes, 10),
				a.SavedAt.Format(time.RFC3339),
			})
		}
		printTable(cmd,
			[]string{"Artifact", "Kind", "Version", "Samples", "Bytes", "Saved"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
		)
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
