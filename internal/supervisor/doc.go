// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

/*
Package supervisor runs the long-lived parts of the brewing server under a
suture v4 supervisor tree.

# Overview

Services are grouped into three layers:

	RootSupervisor ("aicoffee")
	├── DataSupervisor ("data-layer")
	│   ├── ArtifactWatcherService (if artifacts.watch)
	│   ├── SuggestionGCService
	│   └── CacheSweepService (if cache.enabled)
	├── TrainingSupervisor ("training-layer")
	│   └── RetrainService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services restart with backoff. Each layer restarts independently,
and the API keeps serving the last published models while the training
layer recovers.

# Logging

Supervisor events go through sutureslog. Pass a *slog.Logger built from
logging.NewSlogLogger so they land in the zerolog output.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}
	tree.AddTrainingService(services.NewRetrainService(engine, cfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
