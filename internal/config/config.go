// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/dashflow/internal/charts"
	"github.com/tomtom215/dashflow/internal/fetch"
	"github.com/tomtom215/dashflow/internal/logging"
	"github.com/tomtom215/dashflow/internal/warehouse"
)

// Warehouse drivers.
const (
	DriverDuckDB = "duckdb"
	DriverHTTP   = "http"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Warehouse WarehouseConfig `koanf:"warehouse"`
	Fetch     FetchConfig     `koanf:"fetch"`
	Charts    ChartsConfig    `koanf:"charts"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   logging.Config  `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	Environment     string        `koanf:"environment" validate:"oneof=development production test"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// WarehouseConfig selects and tunes the query executor.
type WarehouseConfig struct {
	// Driver is "duckdb" for an embedded database or "http" for a remote
	// query endpoint.
	Driver    string          `koanf:"driver" validate:"oneof=duckdb http"`
	DuckDB    DuckDBConfig    `koanf:"duckdb"`
	HTTP      HTTPConfig      `koanf:"http"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// DuckDBConfig configures the embedded warehouse.
type DuckDBConfig struct {
	Path     string `koanf:"path"`
	Threads  int    `koanf:"threads" validate:"gte=0"`
	ReadOnly bool   `koanf:"read_only"`
}

// HTTPConfig configures a remote query endpoint.
type HTTPConfig struct {
	URL          string        `koanf:"url" validate:"omitempty,http_url"`
	Timeout      time.Duration `koanf:"timeout" validate:"gte=0"`
	APIKey       string        `koanf:"api_key"`
	APIKeyHeader string        `koanf:"api_key_header"`
}

// BreakerConfig configures the circuit breaker around the executor.
type BreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout      time.Duration `koanf:"timeout" validate:"gte=0"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio" validate:"gte=0,lte=1"`
}

// RateLimitConfig bounds the query rate sent to the warehouse. A zero rate
// disables limiting.
type RateLimitConfig struct {
	QueriesPerSecond float64 `koanf:"queries_per_second" validate:"gte=0"`
	Burst            int     `koanf:"burst" validate:"gte=0"`
}

// FetchConfig tunes the fetch controller.
type FetchConfig struct {
	DefaultTTL     time.Duration `koanf:"default_ttl" validate:"gt=0"`
	MaxRetries     int           `koanf:"max_retries" validate:"gte=0,lte=10"`
	InitialBackoff time.Duration `koanf:"initial_backoff" validate:"gt=0"`
	MaxBackoff     time.Duration `koanf:"max_backoff" validate:"gtefield=InitialBackoff"`
	QueryTimeout   time.Duration `koanf:"query_timeout" validate:"gt=0"`
	MaxRows        int           `koanf:"max_rows" validate:"gte=0"`
}

// ChartsConfig configures the chart catalogue and series derivation.
type ChartsConfig struct {
	// Dataset replaces {{dataset}} in chart queries.
	Dataset        string        `koanf:"dataset" validate:"required,identifier"`
	SeriesCacheTTL time.Duration `koanf:"series_cache_ttl" validate:"gt=0"`
	// DisableBuiltin serves only Definitions.
	DisableBuiltin bool                `koanf:"disable_builtin"`
	Definitions    []charts.Definition `koanf:"definitions"`
}

// SecurityConfig holds HTTP-facing protections.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// ExecutorName labels the warehouse in metrics and breaker state.
func (w WarehouseConfig) ExecutorName() string {
	return "warehouse-" + w.Driver
}

// DuckDBExecutorConfig converts to the executor's configuration.
func (w WarehouseConfig) DuckDBExecutorConfig() warehouse.DuckDBConfig {
	return warehouse.DuckDBConfig{Path: w.DuckDB.Path, Threads: w.DuckDB.Threads, ReadOnly: w.DuckDB.ReadOnly}
}

// HTTPExecutorConfig converts to the executor's configuration. The API key
// is sent in APIKeyHeader when both are set.
func (w WarehouseConfig) HTTPExecutorConfig() warehouse.HTTPConfig {
	cfg := warehouse.HTTPConfig{URL: w.HTTP.URL, Timeout: w.HTTP.Timeout}
	if w.HTTP.APIKey != "" && w.HTTP.APIKeyHeader != "" {
		cfg.Headers = map[string]string{w.HTTP.APIKeyHeader: w.HTTP.APIKey}
	}
	return cfg
}

// BreakerSettings converts to the breaker's configuration. Unset fields keep
// the breaker defaults.
func (w WarehouseConfig) BreakerSettings() warehouse.BreakerConfig {
	cfg := warehouse.DefaultBreakerConfig(w.ExecutorName())
	if w.Breaker.MaxRequests > 0 {
		cfg.MaxRequests = w.Breaker.MaxRequests
	}
	if w.Breaker.Interval > 0 {
		cfg.Interval = w.Breaker.Interval
	}
	if w.Breaker.Timeout > 0 {
		cfg.Timeout = w.Breaker.Timeout
	}
	if w.Breaker.MinRequests > 0 {
		cfg.MinRequests = w.Breaker.MinRequests
	}
	if w.Breaker.FailureRatio > 0 {
		cfg.FailureRatio = w.Breaker.FailureRatio
	}
	return cfg
}

// Limiter returns the warehouse rate limiter, nil when limiting is disabled.
func (w WarehouseConfig) Limiter() *rate.Limiter {
	if w.RateLimit.QueriesPerSecond <= 0 {
		return nil
	}
	burst := w.RateLimit.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(w.RateLimit.QueriesPerSecond), burst)
}

// ControllerConfig converts to the fetch controller's configuration.
func (f FetchConfig) ControllerConfig() fetch.Config {
	return fetch.Config{
		DefaultTTL:     f.DefaultTTL,
		MaxRetries:     f.MaxRetries,
		InitialBackoff: f.InitialBackoff,
		MaxBackoff:     f.MaxBackoff,
		QueryTimeout:   f.QueryTimeout,
		MaxRows:        f.MaxRows,
	}
}

// ServiceConfig converts to the chart service configuration. View-only
// charts are capped at the fetch row limit.
func (c *Config) ServiceConfig() charts.ServiceConfig {
	return charts.ServiceConfig{
		Dataset:        c.Charts.Dataset,
		MaxRows:        c.Fetch.MaxRows,
		SeriesCacheTTL: c.Charts.SeriesCacheTTL,
	}
}

// Registry builds the chart catalogue: the built-in charts unless disabled,
// followed by the configured definitions.
func (c ChartsConfig) Registry() (*charts.Registry, error) {
	var defs []charts.Definition
	if !c.DisableBuiltin {
		defs = charts.Builtin()
	}
	defs = append(defs, c.Definitions...)
	reg, err := charts.NewRegistry(defs...)
	if err != nil {
		return nil, fmt.Errorf("failed to build chart registry: %w", err)
	}
	return reg, nil
}
