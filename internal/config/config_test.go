package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"GRADEBOOK_ENV", "GRADEBOOK_ADDR", "GRADEBOOK_CSRF_KEY", "GRADEBOOK_API_TIMEOUT",
		"GRADEBOOK_BROWSER", "GRADEBOOK_LOG_LEVEL", "GRADEBOOK_API_URL"} {
		t.Setenv(k, "")
	}

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Addr != DefaultAddr || c.APITimeout != DefaultAPITimeout || !c.Browser || c.Production() {
		t.Errorf("defaults = %+v", c)
	}
	if len(c.CSRFKey) != 32 {
		t.Errorf("generated CSRF key has %d bytes, want 32", len(c.CSRFKey))
	}
	if c.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", c.LogLevel)
	}
	if err := c.RequireAPIURL(); err == nil {
		t.Error("RequireAPIURL() should fail without GRADEBOOK_API_URL")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GRADEBOOK_ENV", "production")
	t.Setenv("GRADEBOOK_CSRF_KEY", strings.Repeat("ab", 32))
	t.Setenv("GRADEBOOK_API_TIMEOUT", "5")
	t.Setenv("GRADEBOOK_BROWSER", "OFF")
	t.Setenv("GRADEBOOK_LOG_LEVEL", "debug")
	t.Setenv("GRADEBOOK_SLOW_QUERY_MS", "200")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !c.Production() || c.Browser || c.APITimeout != 5*time.Second || c.LogLevel != slog.LevelDebug {
		t.Errorf("overrides = %+v", c)
	}
	if c.SlowQuery != 200*time.Millisecond {
		t.Errorf("SlowQuery = %v, want 200ms", c.SlowQuery)
	}
	if c.CSRFKey[0] != 0xab {
		t.Errorf("CSRFKey = %x", c.CSRFKey)
	}

	var buf bytes.Buffer
	c.NewLogger(&buf).Info("probe")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("production logger should write JSON, got %q", buf.String())
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"short csrf key":      {"GRADEBOOK_CSRF_KEY": "abcd"},
		"missing key in prod": {"GRADEBOOK_ENV": "production", "GRADEBOOK_CSRF_KEY": ""},
		"bad timeout":         {"GRADEBOOK_API_TIMEOUT": "soon"},
		"bad log level":       {"GRADEBOOK_LOG_LEVEL": "loud"},
		"negative slow query": {"GRADEBOOK_SLOW_QUERY_MS": "-5"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for _, k := range []string{"GRADEBOOK_ENV", "GRADEBOOK_CSRF_KEY", "GRADEBOOK_API_TIMEOUT", "GRADEBOOK_LOG_LEVEL", "GRADEBOOK_SLOW_QUERY_MS"} {
				t.Setenv(k, "")
			}
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}
