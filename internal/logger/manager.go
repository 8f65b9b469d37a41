// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/config"
)

// Manager hands out one named zerolog logger per package, sharing a single set of writers.
type Manager struct {
	cfg     *config.LogConfig
	root    zerolog.Logger
	mu      sync.RWMutex
	loggers map[string]zerolog.Logger
	closers []io.Closer
}

// NewManager builds the writers described by cfg and the root logger on top of them.
func NewManager(cfg *config.LogConfig) (*Manager, error) {
	m := &Manager{
		cfg:     cfg,
		loggers: make(map[string]zerolog.Logger),
	}

	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	writers, err := m.buildWriters()
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create log writers: %w", err)
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		// The dashboard owns the terminal, so nothing configured means nothing written.
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	m.root = m.decorate(zerolog.New(out).Level(parseLevel(cfg.Level)))
	return m, nil
}

func (m *Manager) buildWriters() ([]io.Writer, error) {
	var writers []io.Writer
	for _, output := range m.cfg.Output {
		if !output.Enabled {
			continue
		}
		switch output.Type {
		case "console":
			if m.cfg.Format == "console" {
				writers = append(writers, consoleWriter(os.Stderr, "15:04:05.000", false))
			} else {
				writers = append(writers, os.Stderr)
			}
		case "file":
			w, err := m.openFile(output)
			if err != nil {
				return nil, err
			}
			if m.cfg.Format == "console" {
				writers = append(writers, consoleWriter(w, "2006-01-02 15:04:05.000", true))
			} else {
				writers = append(writers, w)
			}
		default:
			return nil, fmt.Errorf("unsupported output type: %s", output.Type)
		}
	}
	return writers, nil
}

func (m *Manager) openFile(output config.LogOutputConfig) (io.Writer, error) {
	if output.Path == "" {
		return nil, fmt.Errorf("file output requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(output.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if output.Rotate.MaxSizeMB > 0 {
		lj := &lumberjack.Logger{
			Filename:   output.Path,
			MaxSize:    output.Rotate.MaxSizeMB,
			MaxBackups: output.Rotate.MaxBackups,
			MaxAge:     output.Rotate.MaxAgeDays,
			Compress:   output.Rotate.Compress,
		}
		m.closers = append(m.closers, lj)
		return lj, nil
	}

	f, err := os.OpenFile(output.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", output.Path, err)
	}
	m.closers = append(m.closers, f)
	return f, nil
}

func consoleWriter(out io.Writer, timeFormat string, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: timeFormat,
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
	}
}

func (m *Manager) decorate(l zerolog.Logger) zerolog.Logger {
	ctx := l.With()
	if m.cfg.Context.IncludeTimestamp {
		ctx = ctx.Timestamp()
	}
	if m.cfg.Context.IncludeCaller {
		ctx = ctx.Caller()
	}
	if m.cfg.Context.IncludeStackTrace != "" {
		ctx = ctx.Stack()
	}
	l = ctx.Logger()

	if m.cfg.Sampling.Enabled {
		l = l.Sample(&zerolog.BurstSampler{
			Burst:       m.cfg.Sampling.Initial,
			Period:      m.cfg.Sampling.Tick,
			NextSampler: &zerolog.BasicSampler{N: m.cfg.Sampling.Thereafter},
		})
	}
	return l
}

// GetLogger returns the logger for pkg, creating it on first use.
func (m *Manager) GetLogger(pkg string) zerolog.Logger {
	m.mu.RLock()
	l, ok := m.loggers[pkg]
	m.mu.RUnlock()
	if ok {
		return l
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.loggers[pkg]; ok {
		return l
	}
	l = m.root.With().Str("pkg", pkg).Logger().Level(m.levelFor(pkg))
	m.loggers[pkg] = l
	return l
}

// SetPackageLevel changes the level of pkg for loggers handed out from now on
// and for the cached instance.
func (m *Manager) SetPackageLevel(pkg, level string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.Levels == nil {
		m.cfg.Levels = make(map[string]string)
	}
	m.cfg.Levels[pkg] = level
	if l, ok := m.loggers[pkg]; ok {
		m.loggers[pkg] = l.Level(parseLevel(level))
	}
}

func (m *Manager) levelFor(pkg string) zerolog.Level {
	if lvl, ok := m.cfg.Levels[pkg]; ok {
		return parseLevel(lvl)
	}
	return parseLevel(m.cfg.Level)
}

// Close closes every file writer. Console outputs are left alone.
func (m *Manager) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	m.closers = nil
	return first
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "FATAL":
		return zerolog.FatalLevel
	case "PANIC":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

var (
	globalMu      sync.RWMutex
	globalManager *Manager
)

// Initialize installs the process-wide manager. Calling it again replaces the
// previous manager and closes its files.
func Initialize(cfg *config.LogConfig) error {
	m, err := NewManager(cfg)
	if err != nil {
		return err
	}
	globalMu.Lock()
	prev := globalManager
	globalManager = m
	globalMu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// GetLogger returns the named logger from the global manager, or a discard
// logger if Initialize has not run.
func GetLogger(pkg string) zerolog.Logger {
	globalMu.RLock()
	m := globalManager
	globalMu.RUnlock()
	if m == nil {
		return zerolog.Nop()
	}
	return m.GetLogger(pkg)
}

// CloseGlobal closes the global manager's files and uninstalls it.
func CloseGlobal() error {
	globalMu.Lock()
	m := globalManager
	globalManager = nil
	globalMu.Unlock()
	if m == nil {
		return nil
	}
	return m.Close()
}
