// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/dashflow/internal/charts"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestDefaultConfig verifies that defaultConfig() returns the documented defaults
func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q, want 0.0.0.0:8080", cfg.Server.Addr())
	}
	if cfg.Warehouse.Driver != DriverDuckDB {
		t.Errorf("Warehouse.Driver = %q, want duckdb", cfg.Warehouse.Driver)
	}
	if !cfg.Warehouse.Breaker.Enabled {
		t.Error("Warehouse.Breaker.Enabled should be true by default")
	}
	if cfg.Fetch.MaxRows != 1000 {
		t.Errorf("Fetch.MaxRows = %d, want 1000", cfg.Fetch.MaxRows)
	}
	if cfg.Fetch.DefaultTTL != 5*time.Minute {
		t.Errorf("Fetch.DefaultTTL = %v, want 5m", cfg.Fetch.DefaultTTL)
	}
	if cfg.Charts.Dataset != "main" {
		t.Errorf("Charts.Dataset = %q, want main", cfg.Charts.Dataset)
	}
	if !reflect.DeepEqual(cfg.Security.CORSOrigins, []string{"*"}) {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

// TestLoad_DefaultsOnly loads without a file; no mapped env vars are set by
// the test runner.
func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := load("")
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Fetch.QueryTimeout != 60*time.Second {
		t.Errorf("unexpected defaults: port=%d timeout=%v", cfg.Server.Port, cfg.Fetch.QueryTimeout)
	}
	if cfg.Logging.Output == nil {
		t.Error("Logging.Output should be set after load")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("FETCH_QUERY_TIMEOUT", "45s")
	t.Setenv("FETCH_MAX_ROWS", "250")
	t.Setenv("WAREHOUSE_DRIVER", "http")
	t.Setenv("WAREHOUSE_URL", "https://warehouse.example.com/api/query")
	t.Setenv("WAREHOUSE_RATE_LIMIT", "2.5")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("DISABLE_RATE_LIMIT", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("UNRELATED_SETTING", "ignored")

	cfg, err := load("")
	if err != nil {
		t.Fatalf("load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Fetch.QueryTimeout != 45*time.Second {
		t.Errorf("Fetch.QueryTimeout = %v, want 45s", cfg.Fetch.QueryTimeout)
	}
	if cfg.Fetch.MaxRows != 250 || cfg.ServiceConfig().MaxRows != 250 {
		t.Errorf("Fetch.MaxRows = %d, want 250", cfg.Fetch.MaxRows)
	}
	if cfg.Warehouse.Driver != DriverHTTP || cfg.Warehouse.HTTP.URL != "https://warehouse.example.com/api/query" {
		t.Errorf("Warehouse = %+v", cfg.Warehouse)
	}
	if cfg.Warehouse.RateLimit.QueriesPerSecond != 2.5 {
		t.Errorf("RateLimit.QueriesPerSecond = %v, want 2.5", cfg.Warehouse.RateLimit.QueriesPerSecond)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if !reflect.DeepEqual(cfg.Security.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	if !cfg.Security.RateLimitDisabled {
		t.Error("RateLimitDisabled should be true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

const fileConfig = `
server:
  port: 7000
warehouse:
  duckdb:
    path: /srv/jobs.duckdb
charts:
  dataset: analytics
  series_cache_ttl: 2m
  definitions:
    - id: remote-share
      name: Remote Share by Month
      category: trends
      tags: [remote, monthly]
      view: monthly_remote_share
      refresh_interval_seconds: 1800
      schema:
        temporal: [month]
        numeric: [remote_jobs, job_count]
      options:
        sort_field: month
        sort_ascending: true
        label_field: month
        label_layout: "2006-01"
        primary_field: remote_jobs
        secondary_field: job_count
        ratio:
          a: remote_jobs
          b: job_count
          out: remote_ratio
`

func TestLoadFile(t *testing.T) {
	t.Setenv("CHARTS_DATASET", "warehouse")
	path := writeConfigFile(t, fileConfig)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("unset file keys must keep defaults, Host = %q", cfg.Server.Host)
	}
	if cfg.Charts.Dataset != "warehouse" {
		t.Errorf("env should override the file, Dataset = %q", cfg.Charts.Dataset)
	}
	if cfg.Charts.SeriesCacheTTL != 2*time.Minute {
		t.Errorf("SeriesCacheTTL = %v, want 2m", cfg.Charts.SeriesCacheTTL)
	}
	if len(cfg.Charts.Definitions) != 1 {
		t.Fatalf("Definitions = %d, want 1", len(cfg.Charts.Definitions))
	}

	d := cfg.Charts.Definitions[0]
	if d.RefreshInterval() != 30*time.Minute {
		t.Errorf("RefreshInterval() = %v, want 30m", d.RefreshInterval())
	}
	if !reflect.DeepEqual(d.Schema.Temporal, []string{"month"}) {
		t.Errorf("Schema.Temporal = %v", d.Schema.Temporal)
	}
	if d.Options.Ratio == nil || d.Options.Ratio.Out != "remote_ratio" || !d.Options.SortAscending {
		t.Errorf("Options = %+v", d.Options)
	}

	reg, err := cfg.Charts.Registry()
	if err != nil {
		t.Fatalf("Registry() error: %v", err)
	}
	if reg.Len() != len(charts.Builtin())+1 {
		t.Errorf("Registry().Len() = %d, want builtin + 1", reg.Len())
	}
	if got := reg.ByTag("remote"); len(got) != 1 || got[0].ID != "remote-share" {
		t.Errorf("ByTag(remote) = %v", got)
	}
}

func TestLoad_ConfigPathEnv(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 7100\n")
	t.Setenv(ConfigPathEnvVar, path)

	if got := ConfigFile(); got != path {
		t.Fatalf("ConfigFile() = %q, want %q", got, path)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want 7100", cfg.Server.Port)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			name: "duplicate chart id",
			content: `
charts:
  definitions:
    - id: monthly-trends
      name: Shadow
      category: trends
      view: shadow
`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, charts.ErrDuplicateChart) {
					t.Errorf("err = %v, want ErrDuplicateChart", err)
				}
			},
		},
		{
			name: "invalid chart",
			content: `
charts:
  definitions:
    - id: Bad ID
      name: Broken
      category: trends
      view: broken
`,
		},
		{
			name:    "malformed yaml",
			content: "server: [port",
		},
		{
			name:    "bad port",
			content: "server:\n  port: 70000\n",
		},
		{
			name: "no charts",
			content: `
charts:
  disable_builtin: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadFile(writeConfigFile(t, tt.content))
			if err == nil {
				t.Fatal("LoadFile() should fail")
			}
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"HTTP_PORT":             "server.port",
		"duckdb_path":           "warehouse.duckdb.path",
		"WAREHOUSE_URL":         "warehouse.http.url",
		"BREAKER_FAILURE_RATIO": "warehouse.breaker.failure_ratio",
		"FETCH_MAX_RETRIES":     "fetch.max_retries",
		"SERIES_CACHE_TTL":      "charts.series_cache_ttl",
		"LOG_FORMAT":            "logging.format",
		"PATH":                  "",
		"HOME":                  "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
