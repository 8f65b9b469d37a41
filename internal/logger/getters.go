// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"github.com/rs/zerolog"
)

// Named getters matching the keys of log.levels in config.yaml.

// GetTransportLogger returns the logger for the live channel client.
func GetTransportLogger() zerolog.Logger {
	return GetLogger("transport")
}

// GetEventsLogger returns the logger for the event router.
func GetEventsLogger() zerolog.Logger {
	return GetLogger("events")
}

// GetDashboardLogger returns the logger for the reducer, poller and session.
func GetDashboardLogger() zerolog.Logger {
	return GetLogger("dashboard")
}

// GetCacheLogger returns the logger for the session cache.
func GetCacheLogger() zerolog.Logger {
	return GetLogger("cache")
}

// GetAPILogger returns the logger for REST calls.
func GetAPILogger() zerolog.Logger {
	return GetLogger("api")
}

// GetTUILogger returns the logger for TUI components.
func GetTUILogger() zerolog.Logger {
	return GetLogger("tui")
}

func GetCLILogger() zerolog.Logger {
	return GetLogger("cli")
}

// GetServerLogger returns the logger for the simulated backend.
func GetServerLogger() zerolog.Logger {
	return GetLogger("server")
}
