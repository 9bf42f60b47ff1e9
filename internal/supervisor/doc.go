// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

/*
Package supervisor runs the server's long-lived services under a suture v4
supervisor tree.

# Overview

	RootSupervisor ("dashflow")
	├── DataSupervisor ("data-layer")
	│   └── RefreshSchedulerService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashed service is restarted by its own layer. Repeated failures put the
layer into backoff without touching the other one, so the API keeps serving
cached series while the scheduler recovers.

# Usage

	logger := logging.NewSlogLogger("supervisor")
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewRefreshSchedulerService(controller))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor stopped")
	}

# Logging

Supervisor events (restarts, backoff, stop timeouts) go through sutureslog
into the slog adapter of the logging package, so they share the zerolog
output and format of the rest of the server.

# Configuration

TreeConfig mirrors suture.Spec. Zero fields fall back to DefaultTreeConfig,
which matches suture's own defaults.
*/
package supervisor
