// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, "ws://localhost:8000/ws", cfg.Live.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Live.ReconnectInterval)
	assert.Equal(t, 10, cfg.Live.MaxReconnectAttempts)
	assert.Equal(t, 3*time.Second, cfg.Poll.Interval)
	assert.Equal(t, time.Second, cfg.Poll.BackoffBase)
	assert.Equal(t, 10*time.Second, cfg.Poll.BackoffMax)
	assert.Equal(t, 2*time.Second, cfg.Chat.DedupWindow)
	assert.Equal(t, 5*time.Second, cfg.Chat.SendDedupWindow)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.NotContains(t, cfg.Cache.Path, "~")
}

func TestNewConfig_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://aisol.example.com/api/v1
  token: secret
live:
  base_url: wss://aisol.example.com/ws
  reconnect_interval: 500ms
cache:
  driver: memory
simulator:
  allowed_origins: "http://a.test,http://b.test"
`)
	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://aisol.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, 500*time.Millisecond, cfg.Live.ReconnectInterval)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Simulator.AllowedOrigins)
	// untouched keys keep their defaults
	assert.Equal(t, 10, cfg.Live.MaxReconnectAttempts)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("AISOL_API_BASE_URL", "http://10.0.0.5:9000/api/v1")
	t.Setenv("AISOL_POLL_INTERVAL", "7s")

	cfg, err := NewConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 7*time.Second, cfg.Poll.Interval)
}

func TestNewConfig_Validation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		errorMsg string
	}{
		{"bad api scheme", "api:\n  base_url: ftp://x/api\n", "api.base_url"},
		{"http live url", "live:\n  base_url: http://localhost:8000/ws\n", "live.base_url"},
		{"log level", "log:\n  level: LOUD\n", "invalid log level"},
		{"cache driver", "cache:\n  driver: redis\n", "cache.driver"},
		{"otlp without endpoint", "telemetry:\n  exporter: otlp\n", "otlp_endpoint"},
		{"backoff order", "poll:\n  backoff_base: 20s\n", "backoff"},
		{"negative attempts", "live:\n  max_reconnect_attempts: -1\n", "max_reconnect_attempts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestNewConfig_MissingExplicitFile(t *testing.T) {
	cfg, err := NewConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("AISOL_TEST_DIR", "/srv/aisol")

	assert.Equal(t, filepath.Join(home, ".aisol/session.db"), expandPath("~/.aisol/session.db"))
	assert.Equal(t, "/srv/aisol/x.db", expandPath("$AISOL_TEST_DIR/x.db"))
	assert.Equal(t, "", expandPath(""))
}
