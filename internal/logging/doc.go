// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

// Package logging provides the process-wide zerolog logger.
//
// Every package logs through the global logger configured once by Init from
// the logging section of the configuration. Before Init runs the logger
// writes JSON at info level to stderr; DASHFLOW_QUIET_LOGS=1 silences it,
// which keeps benchmark and fuzz output readable.
//
//	logging.Init(cfg.Logging)
//	logging.Info().Str("addr", cfg.Server.Addr()).Msg("HTTP server listening")
//
// Request-scoped code logs through Ctx so lines carry the request and
// correlation ids set by the HTTP middleware:
//
//	logging.Ctx(r.Context()).Warn().Err(err).Str("chart", id).Msg("Series request failed")
//
// Long-lived components take a child logger once:
//
//	log := logging.ForQuery(spec.ID, key)
//	log.Debug().Int("rows", n).Msg("Query completed")
//
// SlogHandler adapts the logger to log/slog for libraries that only speak
// slog, such as sutureslog in the supervisor tree.
//
// Always terminate a chain with Msg or Send; an unterminated event is never
// written.
package logging
