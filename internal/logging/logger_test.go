// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// withGlobal swaps the global logger for one writing to a buffer and restores
// the previous logger and level when the test ends. Tests using it must not
// run in parallel.
func withGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "json" {
		t.Errorf("level/format = %q/%q, want info/json", cfg.Level, cfg.Format)
	}
	if cfg.Caller {
		t.Error("expected default caller to be false")
	}
	if !cfg.Timestamp {
		t.Error("expected default timestamp to be true")
	}
	if cfg.Service != "dashflow" {
		t.Errorf("service = %q", cfg.Service)
	}
}

func TestInit(t *testing.T) {
	buf := withGlobal(t)

	Init(Config{Level: "debug", Format: "json", Service: "dashflow-test", Output: buf})
	Debug().Str("chart", "monthly-trends").Msg("series derived")

	out := buf.String()
	for _, want := range []string{`"level":"debug"`, `"service":"dashflow-test"`, `"chart":"monthly-trends"`, "series derived"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
	if strings.Contains(out, `"time"`) {
		t.Errorf("timestamp disabled but present: %s", out)
	}
}

func TestInit_ConsoleFormat(t *testing.T) {
	buf := withGlobal(t)

	Init(Config{Level: "info", Format: "console", Output: buf})
	Info().Msg("console message")

	out := buf.String()
	if !strings.Contains(out, "console message") {
		t.Errorf("expected message in console output: %s", out)
	}
	if strings.Contains(out, `"message"`) {
		t.Errorf("console output should not be JSON: %s", out)
	}
}

func TestInit_LevelFilters(t *testing.T) {
	buf := withGlobal(t)

	Init(Config{Level: "warn", Output: buf})
	Info().Msg("hidden")
	Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("warn level output = %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    zerolog.Level
		wantErr bool
	}{
		{"trace", zerolog.TraceLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"", zerolog.InfoLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{" error ", zerolog.ErrorLevel, false},
		{"fatal", zerolog.FatalLevel, false},
		{"panic", zerolog.PanicLevel, false},
		{"off", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetLevelString(t *testing.T) {
	withGlobal(t)

	if err := SetLevelString("error"); err != nil {
		t.Fatalf("SetLevelString: %v", err)
	}
	if GetLevel() != zerolog.ErrorLevel {
		t.Errorf("level = %v, want error", GetLevel())
	}
	if !IsLevelEnabled(zerolog.FatalLevel) || IsLevelEnabled(zerolog.WarnLevel) {
		t.Error("IsLevelEnabled disagrees with the global level")
	}

	if err := SetLevelString("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if GetLevel() != zerolog.ErrorLevel {
		t.Error("an unknown level must leave the level unchanged")
	}
}

func TestWith(t *testing.T) {
	buf := withGlobal(t)

	logger := With().Str("component", "fetch").Logger()
	logger.Info().Msg("polling started")

	if !strings.Contains(buf.String(), `"component":"fetch"`) {
		t.Errorf("expected component field: %s", buf.String())
	}
}

func TestErr(t *testing.T) {
	buf := withGlobal(t)

	Err(errTest("warehouse unavailable")).Msg("query failed")

	out := buf.String()
	if !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, "warehouse unavailable") {
		t.Errorf("Err output = %s", out)
	}
}

func TestNewTestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewTestLogger(&buf)
	logger.Info().Msg("captured")

	if !strings.Contains(buf.String(), "captured") || !strings.Contains(buf.String(), `"time"`) {
		t.Errorf("test logger output = %s", buf.String())
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
