// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, describeError(err))
		}
		stop()
		os.Exit(1)
	}
}
