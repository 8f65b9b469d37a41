// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is a scripted stand-in for the AI-SOL backend. It serves
// the same REST and WebSocket surface and plays a workflow scenario so the
// dashboard can be driven without model access.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/facebookgo/clock"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/config"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
)

const maxJSONBody = 1 << 20

func getLog() zerolog.Logger {
	return logger.GetServerLogger()
}

// Server is the REST + WebSocket simulator.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	store      *Store
	hub        *Hub
	engine     *Engine
}

// New wires the simulator. It does not listen; call Run for that. A nil
// scenario plays the embedded default and a nil clock uses wall time.
func New(cfg config.SimulatorConfig, scenario *Scenario, clk clock.Clock) (*Server, error) {
	if scenario == nil {
		var err error
		if cfg.ScenarioPath != "" {
			scenario, err = LoadScenario(cfg.ScenarioPath)
		} else {
			scenario, err = DefaultScenario()
		}
		if err != nil {
			return nil, err
		}
	}
	if clk == nil {
		clk = clock.New()
	}

	store := NewStore(clk.Now)
	hub := NewHub()
	engine := NewEngine(store, hub, scenario, clk, cfg.StepDelay)
	h := NewHandlers(store, engine, hub, clk.Now)

	r := chi.NewRouter()
	r.Use(Recovery)
	r.Use(RequestID)
	r.Use(Tracing)
	r.Use(Logger)
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(MaxBodySize(maxJSONBody))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/config", h.Config)
		r.Post("/chat", h.Chat)
		r.Post("/upload/image", h.UploadImage)

		r.Get("/projects", h.ListProjects)
		r.Post("/projects/create", h.CreateProject)

		r.Route("/projects/{id}", func(r chi.Router) {
			r.Get("/", h.GetProject)
			r.Delete("/", h.DeleteProject)
			r.Get("/status", h.GetStatus)
			r.Get("/logs", h.GetLogs)
			r.Post("/start-workflow", h.StartWorkflow)
			r.Post("/restart", h.RestartProject)
			r.Post("/resume", h.ResumeProject)
			r.Get("/files", h.ListFiles)
			r.Get("/files/content", h.GetFileContent)
			r.Put("/files/content", h.SaveFileContent)
			r.Post("/upload-image", h.UploadImage)
		})
	})

	r.Get("/ws/{projectID}", hub.HandleWebSocket(cfg.AllowedOrigins))

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		handler: r,
		store:   store,
		hub:     hub,
		engine:  engine,
	}, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.handler }

// Addr is the configured listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Run serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		log := getLog()
		log.Info().Str("addr", ln.Addr().String()).Msg("Simulator listening")
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.engine.Shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops running workflows and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.engine.Shutdown()
	err := s.httpServer.Shutdown(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
