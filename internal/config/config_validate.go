// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package config

import (
	"fmt"

	"github.com/tomtom215/dashflow/internal/logging"
	"github.com/tomtom215/dashflow/internal/validation"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateWarehouse(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	if err := c.validateCharts(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateWarehouse checks the settings of the selected driver
func (c *Config) validateWarehouse() error {
	switch c.Warehouse.Driver {
	case DriverHTTP:
		if c.Warehouse.HTTP.URL == "" {
			return fmt.Errorf("WAREHOUSE_URL is required when WAREHOUSE_DRIVER=http")
		}
		if err := validateEndpointURL(c.Warehouse.HTTP.URL, "WAREHOUSE_URL"); err != nil {
			return fmt.Errorf("WAREHOUSE_URL is invalid: %w", err)
		}
		if c.Warehouse.HTTP.APIKey != "" && c.Warehouse.HTTP.APIKeyHeader == "" {
			return fmt.Errorf("WAREHOUSE_API_KEY_HEADER is required when WAREHOUSE_API_KEY is set")
		}
	case DriverDuckDB:
		if c.Warehouse.DuckDB.Path == "" && c.IsProduction() {
			return fmt.Errorf("DUCKDB_PATH is required in production (an in-memory warehouse has no data)")
		}
	}

	if c.Warehouse.RateLimit.QueriesPerSecond > 0 && c.Warehouse.RateLimit.Burst < 1 {
		return fmt.Errorf("WAREHOUSE_RATE_BURST must be at least 1 when WAREHOUSE_RATE_LIMIT is set")
	}
	return nil
}

// validateSecurity validates CORS origins and request rate limits
func (c *Config) validateSecurity() error {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			if c.IsProduction() {
				return fmt.Errorf("CORS_ORIGINS must list explicit origins in production, not *")
			}
			continue
		}
		if err := validateOriginURL(origin, "CORS_ORIGINS"); err != nil {
			return err
		}
	}

	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1 unless DISABLE_RATE_LIMIT=true")
	}
	return nil
}

// validateCharts checks every configured chart definition and that the
// combined catalogue is not empty
func (c *Config) validateCharts() error {
	reg, err := c.Charts.Registry()
	if err != nil {
		return err
	}
	if reg.Len() == 0 {
		return fmt.Errorf("no charts configured: charts.definitions is empty and CHARTS_DISABLE_BUILTIN=true")
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	return nil
}
