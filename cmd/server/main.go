// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/dashflow/internal/api"
	"github.com/tomtom215/dashflow/internal/charts"
	"github.com/tomtom215/dashflow/internal/config"
	"github.com/tomtom215/dashflow/internal/fetch"
	"github.com/tomtom215/dashflow/internal/logging"
	"github.com/tomtom215/dashflow/internal/supervisor"
	"github.com/tomtom215/dashflow/internal/supervisor/services"
	"github.com/tomtom215/dashflow/internal/warehouse"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.Logging)
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("warehouse", cfg.Warehouse.Driver).
		Str("dataset", cfg.Charts.Dataset).
		Msg("Starting Dashflow")

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" {
			logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*). Set explicit origins outside development.")
			break
		}
	}

	exec, pinger, closer, err := newExecutor(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize warehouse executor")
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing warehouse executor")
		}
	}()

	registry, err := cfg.Charts.Registry()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build chart registry")
	}
	logging.Info().
		Int("charts", registry.Len()).
		Strs("categories", registry.Categories()).
		Msg("Chart registry loaded")

	controller := fetch.NewController(exec, cfg.Fetch.ControllerConfig())
	defer controller.Close()

	chartService := charts.NewService(registry, controller, cfg.ServiceConfig())
	defer chartService.Close()

	handler := api.NewHandler(chartService, pinger, api.HandlerConfig{
		CORSOrigins: cfg.Security.CORSOrigins,
		Version:     version,
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.NewChiMiddlewareConfig(
		cfg.Security.CORSOrigins,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddDataService(services.NewRefreshSchedulerService(controller))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	watchLogLevel()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// newExecutor builds the configured warehouse executor and its decorators.
// The pinger answers readiness probes; closer releases the connection.
func newExecutor(cfg *config.Config) (warehouse.Executor, api.Pinger, io.Closer, error) {
	var (
		base   warehouse.Executor
		pinger api.Pinger
		closer io.Closer = nopCloser{}
	)

	switch cfg.Warehouse.Driver {
	case config.DriverDuckDB:
		duck, err := warehouse.NewDuckDBExecutor(cfg.Warehouse.DuckDBExecutorConfig())
		if err != nil {
			return nil, nil, nil, err
		}
		base, pinger, closer = duck, duck, duck
	case config.DriverHTTP:
		httpExec := warehouse.NewHTTPExecutor(cfg.Warehouse.HTTPExecutorConfig())
		base, pinger = httpExec, httpExec
		logging.Info().Str("url", cfg.Warehouse.HTTP.URL).Msg("HTTP warehouse configured")
	default:
		return nil, nil, nil, fmt.Errorf("unsupported warehouse driver %q", cfg.Warehouse.Driver)
	}

	// Metrics observe every call that reaches the warehouse. The breaker is
	// outermost so an open circuit rejects without waiting on the limiter.
	exec := warehouse.WithMetrics(base, cfg.Warehouse.ExecutorName())
	if limiter := cfg.Warehouse.Limiter(); limiter != nil {
		exec = warehouse.WithRateLimit(exec, limiter)
		logging.Info().
			Float64("qps", cfg.Warehouse.RateLimit.QueriesPerSecond).
			Int("burst", cfg.Warehouse.RateLimit.Burst).
			Msg("Warehouse rate limit enabled")
	}
	if cfg.Warehouse.Breaker.Enabled {
		exec = warehouse.WithCircuitBreaker(exec, cfg.Warehouse.BreakerSettings())
	}
	return exec, pinger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// watchLogLevel applies logging.level changes from the config file without
// a restart. Other settings need a restart.
func watchLogLevel() {
	path := config.ConfigFile()
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		cfg, err := config.LoadFile(path)
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid configuration change")
			return
		}
		if err := logging.SetLevelString(cfg.Logging.Level); err != nil {
			logging.Warn().Err(err).Msg("Ignoring invalid log level")
			return
		}
		logging.Info().Str("level", cfg.Logging.Level).Msg("Log level reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}
