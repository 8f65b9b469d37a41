// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// aisol-sim serves a scripted AI-SOL backend on the same REST and WebSocket
// surface as the real one, for driving the dashboard without model access.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookgo/clock"
	"github.com/spf13/cobra"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/config"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/server"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
		scenario   string
		stepDelay  time.Duration
		quiet      bool
	)
	cmd := &cobra.Command{
		Use:          "aisol-sim",
		Short:        "Scripted AI-SOL backend",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Simulator.Host = host
			}
			if flags.Changed("port") {
				cfg.Simulator.Port = port
			}
			if flags.Changed("scenario") {
				cfg.Simulator.ScenarioPath = scenario
			}
			if flags.Changed("step-delay") {
				cfg.Simulator.StepDelay = stepDelay
			}
			// Unlike the dashboard, the simulator owns no screen, so it logs to the terminal.
			for i := range cfg.Log.Output {
				if cfg.Log.Output[i].Type == "console" {
					cfg.Log.Output[i].Enabled = !quiet
				}
			}

			if err := logger.Initialize(&cfg.Log); err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			defer logger.CloseGlobal()

			if cfg.Telemetry.ServiceName == "" || cfg.Telemetry.ServiceName == config.Default().Telemetry.ServiceName {
				cfg.Telemetry.ServiceName = "aisol-simulator"
			}
			shutdown, err := telemetry.Setup(cmd.Context(), cfg.Telemetry)
			if err != nil {
				return fmt.Errorf("initializing telemetry: %w", err)
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(flushCtx)
			}()

			srv, err := server.New(cfg.Simulator, nil, clock.New())
			if err != nil {
				return fmt.Errorf("loading scenario: %w", err)
			}

			log := logger.GetServerLogger()
			log.Info().Str("addr", srv.Addr()).Dur("step_delay", cfg.Simulator.StepDelay).Msg("Starting AI-SOL simulator")
			if err := srv.Run(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("Simulator shut down")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "config file")
	f.StringVar(&host, "host", "", "listen host, overrides simulator.host")
	f.IntVarP(&port, "port", "p", 0, "listen port, overrides simulator.port")
	f.StringVar(&scenario, "scenario", "", "scenario YAML, overrides simulator.scenario_path")
	f.DurationVar(&stepDelay, "step-delay", 0, "pause between scripted steps")
	f.BoolVarP(&quiet, "quiet", "q", false, "do not log to the terminal")
	return cmd
}
