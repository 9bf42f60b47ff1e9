// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

/*
Package services adapts long-running server components to suture.Service.

Each wrapper translates a component's own lifecycle into suture's
context-aware pattern:

	type Service interface {
	    Serve(ctx context.Context) error
	}

HTTPServerService wraps the ListenAndServe/Shutdown pair of *http.Server.
RefreshSchedulerService wraps the Start/Stop pair of the fetch controller's
poll scheduler.

Both implement fmt.Stringer so supervisor events name the service. Both
return ctx.Err() after an orderly stop, which suture treats as a normal
termination rather than a failure.
*/
package services
