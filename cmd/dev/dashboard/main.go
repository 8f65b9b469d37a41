// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// dashboard runs the TUI against an in-process simulator with a short step
// delay and a seeded project, for working on the screens.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"time"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/api"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/cache"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/config"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/dashboard"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/events"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/server"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/transport"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/screens/projectview"
)

func main() {
	delay := flag.Duration("step-delay", 400*time.Millisecond, "pause between scripted steps")
	start := flag.Bool("start", true, "start the seeded project's workflow")
	flag.Parse()

	if err := run(*delay, *start); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(delay time.Duration, start bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.Default()
	cfg.Log.Level = "DEBUG"
	if err := logger.Initialize(&cfg.Log); err != nil {
		return err
	}
	defer logger.CloseGlobal()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	srv, err := server.New(config.SimulatorConfig{StepDelay: delay}, nil, nil)
	if err != nil {
		return err
	}
	srvCtx, stopSrv := context.WithCancel(context.Background())
	defer stopSrv()
	go func() { _ = srv.Serve(srvCtx, ln) }()

	addr := ln.Addr().String()
	client := api.New("http://" + addr + "/api/v1")

	created, err := client.CreateProject(ctx, api.CreateProjectRequest{
		Name:           "demo-shop",
		Type:           "website",
		Requirements:   "A small web shop with a cart and a checkout page",
		GenerateTests:  true,
		GenerateDevOps: true,
	})
	if err != nil {
		return fmt.Errorf("seed project: %w", err)
	}
	if start {
		if _, err := client.StartWorkflow(ctx, created.ProjectID); err != nil {
			return fmt.Errorf("start workflow: %w", err)
		}
	}

	router := events.NewRouter(cfg.Chat.EventHistorySize)
	live := transport.NewClient(transport.Options{
		BaseURL:              "ws://" + addr + "/ws",
		ReconnectInterval:    time.Second,
		MaxReconnectAttempts: 5,
		Sink:                 router,
	})
	sc := cache.NewSessionCache(cache.NewMemoryStore())

	return tui.Run(ctx, tui.Deps{
		Backend: client,
		NewSession: func(projectID string) projectview.Session {
			return dashboard.NewSession(projectID, dashboard.Deps{
				API:    client,
				Live:   live,
				Router: router,
				Cache:  sc,
				Poll:   cfg.Poll,
				Chat:   cfg.Chat,
			})
		},
		Project: created.ProjectID,
	})
}
