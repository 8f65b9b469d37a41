// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli is the aisol command tree: one-shot REST commands, a live
// event tail and the interactive dashboard.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/api"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/config"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/telemetry"
)

const (
	appName    = "aisol"
	appVersion = "0.1.0"
)

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	apiURL     string
	liveURL    string
	token      string
	jsonOut    bool

	cfg      *config.AppConfig
	client   *api.Client
	shutdown telemetry.ShutdownFunc

	out    io.Writer
	errOut io.Writer
}

// Execute runs the CLI application
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   appName,
		Short: "AI-SOL dashboard client",
		Long: `aisol drives an AI-SOL backend: it creates projects, starts their five-stage
workflow (requirements, architecture, developer, QA, DevOps), shows what the
agents produce and approves each review gate.

Run "aisol watch <project-id>" for the live dashboard.`,
		Version:           appVersion,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd.Context()) },
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "config file (default: ./config.yaml, ./config/config.yaml or ~/.aisol/config.yaml)")
	pf.StringVar(&a.apiURL, "api-url", "", "REST base URL, overrides api.base_url")
	pf.StringVar(&a.liveURL, "ws-url", "", "live channel base URL, overrides live.base_url")
	pf.StringVar(&a.token, "token", "", "bearer token, overrides api.token")
	pf.BoolVar(&a.jsonOut, "json", false, "print raw JSON")

	root.AddCommand(
		a.watchCmd(),
		a.createCmd(),
		a.startCmd(),
		a.projectsCmd(),
		a.statusCmd(),
		a.logsCmd(),
		a.chatCmd(),
		a.approveCmd(),
		a.resumeCmd(),
		a.restartCmd(),
		a.deleteCmd(),
		a.filesCmd(),
		a.catCmd(),
		a.saveCmd(),
		a.uploadImageCmd(),
		a.eventsCmd(),
		a.healthCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.NewConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.apiURL != "" {
		cfg.API.BaseURL = a.apiURL
	}
	if a.liveURL != "" {
		cfg.Live.BaseURL = a.liveURL
	}
	if a.token != "" {
		cfg.API.Token = a.token
	}
	a.cfg = cfg

	if err := logger.Initialize(&cfg.Log); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.shutdown = shutdown
	a.client = api.NewFromConfig(cfg.API)

	log := logger.GetCLILogger()
	log.Debug().Str("api", cfg.API.BaseURL).Str("live", cfg.Live.BaseURL).Msg("CLI configured")
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			fmt.Fprintf(a.errOut, "warning: flushing traces: %v\n", err)
		}
	}
	return logger.CloseGlobal()
}
