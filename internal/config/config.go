// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// AppConfig holds all client configuration.
// It is instantiated by NewConfig() and passed to components that need it.
type AppConfig struct {
	API       APIConfig       `mapstructure:"api"`
	Live      LiveConfig      `mapstructure:"live"`
	Poll      PollConfig      `mapstructure:"poll"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Simulator SimulatorConfig `mapstructure:"simulator"`
}

// APIConfig configures the REST client.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Token   string        `mapstructure:"token"` // Bearer token attached to every request when set
	Breaker BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig configures the circuit breaker wrapped around REST calls.
type BreakerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	MaxRequests         uint32        `mapstructure:"max_requests"`
	Interval            time.Duration `mapstructure:"interval"`
	OpenTimeout         time.Duration `mapstructure:"open_timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
}

// LiveConfig configures the per-project live channel.
type LiveConfig struct {
	BaseURL              string        `mapstructure:"base_url"`
	ReconnectInterval    time.Duration `mapstructure:"reconnect_interval"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts"`
	HandshakeTimeout     time.Duration `mapstructure:"handshake_timeout"`
}

// PollConfig configures the status snapshot poller.
type PollConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	BackoffMax  time.Duration `mapstructure:"backoff_max"`
}

// ChatConfig holds the duplicate-suppression windows for the transcript.
type ChatConfig struct {
	DedupWindow      time.Duration `mapstructure:"dedup_window"`       // cross-channel duplicates
	SendDedupWindow  time.Duration `mapstructure:"send_dedup_window"`  // double-submit guard
	LogFeedCapacity  int           `mapstructure:"log_feed_capacity"`  // LOG envelopes kept for display
	EventHistorySize int           `mapstructure:"event_history_size"` // workflow events kept by the router
}

// CacheConfig selects the durable session cache driver.
type CacheConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite", "file" or "memory"
	Path   string `mapstructure:"path"`   // sqlite database file or file-store directory
}

// LogConfig holds comprehensive logging configuration
type LogConfig struct {
	Level    string            `mapstructure:"level"`
	Format   string            `mapstructure:"format"`
	Output   []LogOutputConfig `mapstructure:"output"`
	Levels   map[string]string `mapstructure:"levels"`
	Context  LogContextConfig  `mapstructure:"context"`
	Sampling LogSamplingConfig `mapstructure:"sampling"`
}

// LogOutputConfig defines where logs are written
type LogOutputConfig struct {
	Type    string          `mapstructure:"type"` // "file", "console"
	Enabled bool            `mapstructure:"enabled"`
	Path    string          `mapstructure:"path"`   // For file output
	Rotate  LogRotateConfig `mapstructure:"rotate"` // For file output
}

// LogRotateConfig defines log rotation settings
type LogRotateConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// LogContextConfig defines what context to include in logs
type LogContextConfig struct {
	IncludeCaller     bool   `mapstructure:"include_caller"`
	IncludeTimestamp  bool   `mapstructure:"include_timestamp"`
	IncludeStackTrace string `mapstructure:"include_stack_trace"`
}

// LogSamplingConfig defines log sampling settings
type LogSamplingConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Initial    uint32        `mapstructure:"initial"`
	Thereafter uint32        `mapstructure:"thereafter"`
	Tick       time.Duration `mapstructure:"tick"`
}

// TelemetryConfig configures tracing of REST calls.
type TelemetryConfig struct {
	Exporter     string `mapstructure:"exporter"` // "none", "stdout" or "otlp"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OutputPath   string `mapstructure:"output_path"` // stdout exporter target file
	ServiceName  string `mapstructure:"service_name"`
}

// SimulatorConfig configures the local simulated backend.
type SimulatorConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ScenarioPath   string        `mapstructure:"scenario_path"` // Empty = built-in five-stage scenario
	StepDelay      time.Duration `mapstructure:"step_delay"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// NewConfig creates a new AppConfig by reading from a file, environment variables,
// and applying defaults.
func NewConfig(configPath string) (*AppConfig, error) {
	cfg := defaultConfig()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.aisol")
	}

	v.SetEnvPrefix("AISOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	// A missing config file is fine, defaults and env vars still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.expandPaths()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindEnv registers the keys that are commonly overridden from the environment.
// AutomaticEnv alone does not see keys that have no default in viper itself.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"api.base_url", "api.token", "api.timeout",
		"live.base_url", "live.reconnect_interval", "live.max_reconnect_attempts",
		"poll.interval",
		"cache.driver", "cache.path",
		"log.level",
		"telemetry.exporter", "telemetry.otlp_endpoint",
		"simulator.host", "simulator.port", "simulator.scenario_path", "simulator.step_delay",
	} {
		_ = v.BindEnv(key)
	}
}

// Default returns a copy of the built-in configuration.
func Default() *AppConfig {
	cfg := defaultConfig()
	cfg.expandPaths()
	return &cfg
}

func defaultConfig() AppConfig {
	return AppConfig{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api/v1",
			Timeout: 30 * time.Second,
			Breaker: BreakerConfig{
				Enabled:             true,
				MaxRequests:         1,
				Interval:            60 * time.Second,
				OpenTimeout:         10 * time.Second,
				ConsecutiveFailures: 5,
			},
		},
		Live: LiveConfig{
			BaseURL:              "ws://localhost:8000/ws",
			ReconnectInterval:    3 * time.Second,
			MaxReconnectAttempts: 10,
			HandshakeTimeout:     10 * time.Second,
		},
		Poll: PollConfig{
			Interval:    3 * time.Second,
			BackoffBase: time.Second,
			BackoffMax:  10 * time.Second,
		},
		Chat: ChatConfig{
			DedupWindow:      2 * time.Second,
			SendDedupWindow:  5 * time.Second,
			LogFeedCapacity:  200,
			EventHistorySize: 1000,
		},
		Cache: CacheConfig{
			Driver: "sqlite",
			Path:   "~/.aisol/session.db",
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "console",
			Output: []LogOutputConfig{
				{
					Type:    "file",
					Enabled: true,
					Path:    "~/.aisol/logs/aisol.log",
					Rotate: LogRotateConfig{
						MaxSizeMB:  50,
						MaxBackups: 5,
						MaxAgeDays: 14,
						Compress:   true,
					},
				},
				{
					Type:    "console",
					Enabled: false, // Disabled by default, the dashboard owns the terminal
				},
			},
			Levels: map[string]string{
				"transport": "INFO",
				"events":    "INFO",
				"dashboard": "INFO",
				"cache":     "INFO",
				"api":       "INFO",
				"tui":       "WARN",
				"server":    "INFO",
			},
			Context: LogContextConfig{
				IncludeCaller:     true,
				IncludeTimestamp:  true,
				IncludeStackTrace: "ERROR",
			},
			Sampling: LogSamplingConfig{
				Enabled:    false,
				Initial:    100,
				Thereafter: 100,
				Tick:       time.Second,
			},
		},
		Telemetry: TelemetryConfig{
			Exporter:    "none",
			OutputPath:  "~/.aisol/logs/traces.jsonl",
			ServiceName: "aisol-client",
		},
		Simulator: SimulatorConfig{
			Host:      "127.0.0.1",
			Port:      8000,
			StepDelay: 750 * time.Millisecond,
		},
	}
}

func (c *AppConfig) expandPaths() {
	c.Cache.Path = expandPath(c.Cache.Path)
	c.Telemetry.OutputPath = expandPath(c.Telemetry.OutputPath)
	c.Simulator.ScenarioPath = expandPath(c.Simulator.ScenarioPath)
	for i := range c.Log.Output {
		c.Log.Output[i].Path = expandPath(c.Log.Output[i].Path)
	}
}

// expandPath expands ~ to home directory and environment variables
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}

	return os.ExpandEnv(path)
}

func (c *AppConfig) validate() error {
	if err := validateURL("api.base_url", c.API.BaseURL, "http", "https"); err != nil {
		return err
	}
	if err := validateURL("live.base_url", c.Live.BaseURL, "ws", "wss"); err != nil {
		return err
	}

	validLogLevels := map[string]bool{
		"TRACE": true, "DEBUG": true, "INFO": true, "WARN": true, "ERROR": true, "FATAL": true, "PANIC": true,
	}
	if !validLogLevels[strings.ToUpper(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	if c.Live.ReconnectInterval <= 0 {
		return errors.New("live.reconnect_interval must be positive")
	}
	if c.Live.MaxReconnectAttempts < 0 {
		return fmt.Errorf("live.max_reconnect_attempts must not be negative, got: %d", c.Live.MaxReconnectAttempts)
	}
	if c.Poll.Interval <= 0 {
		return errors.New("poll.interval must be positive")
	}
	if c.Poll.BackoffBase <= 0 || c.Poll.BackoffMax < c.Poll.BackoffBase {
		return fmt.Errorf("poll backoff must satisfy 0 < backoff_base <= backoff_max, got %s/%s", c.Poll.BackoffBase, c.Poll.BackoffMax)
	}

	switch c.Cache.Driver {
	case "sqlite", "file":
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for driver %q", c.Cache.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("cache.driver must be 'sqlite', 'file' or 'memory', got: %s", c.Cache.Driver)
	}

	switch c.Telemetry.Exporter {
	case "", "none", "stdout":
	case "otlp":
		if c.Telemetry.OTLPEndpoint == "" {
			return errors.New("telemetry.otlp_endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("telemetry.exporter must be 'none', 'stdout' or 'otlp', got: %s", c.Telemetry.Exporter)
	}

	if c.Simulator.Port <= 0 || c.Simulator.Port > 65535 {
		return fmt.Errorf("invalid simulator port: %d", c.Simulator.Port)
	}

	return nil
}

func validateURL(key, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s must be an absolute %s URL, got: %q", key, strings.Join(schemes, "/"), raw)
}
