// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

/*
Package charts holds the chart catalogue and turns warehouse results into
render-ready series.

A chart is a Definition: display metadata, the query (or view) it reads, the
fields its Normalizer must coerce and the declarative pipeline.Options that
shape its rows. Definitions are collected once into a Registry; the built-in
table comes from Builtin and operators may add more through configuration.

Service ties a Registry to a fetch.Controller:

	svc := charts.NewService(registry, controller, charts.DefaultServiceConfig())
	res, err := svc.Series(ctx, "ai-salary-premium", pipeline.Selection{"month": {"Apr"}})
	var empty *charts.EmptyResultError
	if errors.As(err, &empty) {
		// "no data" state
	}

Series never recomputes a derivation that was already produced for the same
chart, selection and fetch: derived series are memoized in an internal/cache
keyed by those three values.

Subscribe attaches to the chart's query key and yields a recomputed series
after every completed refresh. The subscription keeps the key polled at the
chart's refresh interval until it is closed.
*/
package charts
