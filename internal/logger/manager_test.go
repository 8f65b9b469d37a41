// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/config"
)

func fileConfig(t *testing.T, level string) (*config.LogConfig, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aisol.log")
	return &config.LogConfig{
		Level:  level,
		Format: "json",
		Output: []config.LogOutputConfig{{Type: "file", Enabled: true, Path: path}},
		Levels: map[string]string{},
		Context: config.LogContextConfig{
			IncludeTimestamp: true,
		},
	}, path
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestNewManager(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.LogConfig
		errorMsg string
	}{
		{
			name: "no outputs",
			cfg:  &config.LogConfig{Level: "info", Format: "json"},
		},
		{
			name: "rotating file",
			cfg: &config.LogConfig{
				Level:  "debug",
				Format: "console",
				Output: []config.LogOutputConfig{{
					Type:    "file",
					Enabled: true,
					Path:    filepath.Join(t.TempDir(), "rotating.log"),
					Rotate:  config.LogRotateConfig{MaxSizeMB: 1, MaxBackups: 2},
				}},
			},
		},
		{
			name: "sampling",
			cfg: &config.LogConfig{
				Level:    "info",
				Format:   "json",
				Sampling: config.LogSamplingConfig{Enabled: true, Initial: 10, Thereafter: 10, Tick: time.Second},
			},
		},
		{
			name: "unknown output type",
			cfg: &config.LogConfig{
				Level:  "info",
				Output: []config.LogOutputConfig{{Type: "syslog", Enabled: true}},
			},
			errorMsg: "unsupported output type: syslog",
		},
		{
			name: "file without path",
			cfg: &config.LogConfig{
				Level:  "info",
				Output: []config.LogOutputConfig{{Type: "file", Enabled: true}},
			},
			errorMsg: "requires a path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager(tt.cfg)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, m)
			assert.NoError(t, m.Close())
		})
	}
}

func TestManager_PackageLevels(t *testing.T) {
	cfg, path := fileConfig(t, "info")
	cfg.Levels["transport"] = "debug"
	cfg.Levels["tui"] = "error"

	m, err := NewManager(cfg)
	require.NoError(t, err)

	transport := m.GetLogger("transport")
	transport.Debug().Msg("dialing")
	tui := m.GetLogger("tui")
	tui.Warn().Msg("hidden")
	dash := m.GetLogger("dashboard")
	dash.Debug().Msg("hidden too")
	dash.Info().Msg("visible")
	require.NoError(t, m.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "transport", lines[0]["pkg"])
	assert.Equal(t, "dialing", lines[0]["message"])
	assert.Equal(t, "dashboard", lines[1]["pkg"])
	assert.Equal(t, "visible", lines[1]["message"])
}

func TestManager_SetPackageLevel(t *testing.T) {
	cfg, path := fileConfig(t, "info")
	m, err := NewManager(cfg)
	require.NoError(t, err)

	l := m.GetLogger("cache")
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())

	m.SetPackageLevel("cache", "debug")
	l = m.GetLogger("cache")
	l.Debug().Msg("after")
	require.NoError(t, m.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "after", lines[0]["message"])
	assert.Equal(t, "debug", cfg.Levels["cache"])
}

func TestGetLogger_Uninitialized(t *testing.T) {
	require.NoError(t, CloseGlobal())
	l := GetLogger("anything")
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
}

func TestStaticGetters(t *testing.T) {
	cfg, path := fileConfig(t, "info")
	require.NoError(t, Initialize(cfg))
	t.Cleanup(func() { _ = CloseGlobal() })

	getters := map[string]func() zerolog.Logger{
		"transport": GetTransportLogger,
		"events":    GetEventsLogger,
		"dashboard": GetDashboardLogger,
		"cache":     GetCacheLogger,
		"api":       GetAPILogger,
		"tui":       GetTUILogger,
		"cli":       GetCLILogger,
		"server":    GetServerLogger,
	}
	for pkg, get := range getters {
		l := get()
		l.Info().Msg(pkg)
	}
	require.NoError(t, CloseGlobal())

	lines := readLines(t, path)
	require.Len(t, lines, len(getters))
	for _, line := range lines {
		assert.Equal(t, line["pkg"], line["message"])
	}
}
