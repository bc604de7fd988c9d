// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var (
		configFlag   string
		logLevelFlag string
		jsonFlag     bool
	)
	ctx := newCommandContext(&configFlag, &logLevelFlag, &jsonFlag)
	return newRootCommandWithContext(ctx)
}

func newRootCommandWithContext(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "brewctl",
		Short:         "Train, inspect and query the coffee brewing models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(ctx.configFlag, "config", "c", "", "Configuration file path (overrides CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(ctx.logLevelFlag, "log-level", "warn", "Log level written to stderr")
	rootCmd.PersistentFlags().BoolVar(ctx.jsonFlag, "json", false, "Write JSON instead of tables")

	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newTrainCommand(ctx))
	rootCmd.AddCommand(newPredictCommand(ctx))
	rootCmd.AddCommand(newImpactCommand(ctx))
	rootCmd.AddCommand(newSuggestCommand(ctx))
	rootCmd.AddCommand(newBlendCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))

	return rootCmd
}
