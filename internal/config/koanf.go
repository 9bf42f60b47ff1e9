// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/dashflow/internal/charts"
	"github.com/tomtom215/dashflow/internal/fetch"
	"github.com/tomtom215/dashflow/internal/logging"
	"github.com/tomtom215/dashflow/internal/warehouse"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/dashflow/config.yaml",
	"/etc/dashflow/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	fetchDefaults := fetch.DefaultConfig()
	serviceDefaults := charts.DefaultServiceConfig()
	breaker := warehouse.DefaultBreakerConfig("")

	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // series streams are long-lived
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Warehouse: WarehouseConfig{
			Driver: DriverDuckDB,
			DuckDB: DuckDBConfig{
				Path:     "/data/warehouse.duckdb",
				Threads:  0, // 0 = use runtime.NumCPU()
				ReadOnly: true,
			},
			HTTP: HTTPConfig{
				Timeout:      60 * time.Second,
				APIKeyHeader: "X-API-Key",
			},
			Breaker: BreakerConfig{
				Enabled:      true,
				MaxRequests:  breaker.MaxRequests,
				Interval:     breaker.Interval,
				Timeout:      breaker.Timeout,
				MinRequests:  breaker.MinRequests,
				FailureRatio: breaker.FailureRatio,
			},
			RateLimit: RateLimitConfig{
				QueriesPerSecond: 0, // unlimited
				Burst:            5,
			},
		},
		Fetch: FetchConfig{
			DefaultTTL:     fetchDefaults.DefaultTTL,
			MaxRetries:     fetchDefaults.MaxRetries,
			InitialBackoff: fetchDefaults.InitialBackoff,
			MaxBackoff:     fetchDefaults.MaxBackoff,
			QueryTimeout:   fetchDefaults.QueryTimeout,
			MaxRows:        fetchDefaults.MaxRows,
		},
		Charts: ChartsConfig{
			Dataset:        serviceDefaults.Dataset,
			SeriesCacheTTL: serviceDefaults.SeriesCacheTTL,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults. Chart definitions can only come from
// the config file.
func Load() (*Config, error) {
	return load(ConfigFile())
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// WAREHOUSE_URL -> warehouse.http.url
	// FETCH_MAX_ROWS -> fetch.max_rows
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Logging.Output = os.Stderr

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func ConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower case) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Warehouse
	"warehouse_driver":         "warehouse.driver",
	"duckdb_path":              "warehouse.duckdb.path",
	"duckdb_threads":           "warehouse.duckdb.threads",
	"duckdb_read_only":         "warehouse.duckdb.read_only",
	"warehouse_url":            "warehouse.http.url",
	"warehouse_timeout":        "warehouse.http.timeout",
	"warehouse_api_key":        "warehouse.http.api_key",
	"warehouse_api_key_header": "warehouse.http.api_key_header",
	"breaker_enabled":          "warehouse.breaker.enabled",
	"breaker_timeout":          "warehouse.breaker.timeout",
	"breaker_failure_ratio":    "warehouse.breaker.failure_ratio",
	"warehouse_rate_limit":     "warehouse.rate_limit.queries_per_second",
	"warehouse_rate_burst":     "warehouse.rate_limit.burst",

	// Fetch
	"fetch_default_ttl":     "fetch.default_ttl",
	"fetch_max_retries":     "fetch.max_retries",
	"fetch_initial_backoff": "fetch.initial_backoff",
	"fetch_max_backoff":     "fetch.max_backoff",
	"fetch_query_timeout":   "fetch.query_timeout",
	"fetch_max_rows":        "fetch.max_rows",

	// Charts
	"charts_dataset":         "charts.dataset",
	"series_cache_ttl":       "charts.series_cache_ttl",
	"charts_disable_builtin": "charts.disable_builtin",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables return an empty key and are skipped so unrelated
// environment variables never reach the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile calls callback whenever the file at path changes. The
// caller is responsible for reloading and swapping configuration safely.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
