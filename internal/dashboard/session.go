// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/facebookgo/clock"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/api"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/cache"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/config"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/events"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/protocol"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/transport"
)

// ApproveToken is the chat command that releases a review gate.
const ApproveToken = "approve"

var (
	// ErrDuplicateSend is returned when the same text was sent moments ago.
	ErrDuplicateSend = errors.New("dashboard: duplicate message ignored")
	// ErrEmptyMessage is returned for blank chat input.
	ErrEmptyMessage = errors.New("dashboard: empty message")
	// ErrUnknownFile is returned when a path is not in the file list.
	ErrUnknownFile = errors.New("dashboard: unknown file")
)

// Backend is the slice of the REST API a session uses. *api.Client implements it.
type Backend interface {
	GetStatus(ctx context.Context, projectID string) (models.ProjectStatus, error)
	Chat(ctx context.Context, projectID, message string) (api.ChatReply, error)
	GetFileContent(ctx context.Context, projectID, path string) (string, error)
	SaveFileContent(ctx context.Context, projectID, path, content string) error
}

// LiveChannel is the live connection a session drives. *transport.Client implements it.
type LiveChannel interface {
	Connect(ctx context.Context, projectID string) error
	Disconnect()
	Subscribe(fn transport.Listener) (unsubscribe func())
}

// Deps are the process-scoped services shared by sessions.
type Deps struct {
	API  Backend
	Live LiveChannel
	// Router must be the sink Live publishes workflow events into.
	// It is required whenever Live is set.
	Router *events.Router
	Cache  *cache.SessionCache
	Clock  clock.Clock
	Poll   config.PollConfig
	Chat   config.ChatConfig
}

// Session wires the live channel, the event router, the poller and the
// cache to one project's Reducer. Callbacks carrying another project's id
// are dropped, so a late frame from a previous project cannot leak in.
type Session struct {
	deps    Deps
	reducer *Reducer
	poller  *Poller

	mu       sync.Mutex
	started  bool
	unsubs   []func()
	eventSub []events.Subscription
}

// NewSession builds a stopped session. The reducer is restored from the
// cache immediately, so State is meaningful before Start. It panics when
// Live is set without a Router, since stage events would never arrive.
func NewSession(projectID string, deps Deps) *Session {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Router == nil {
		if deps.Live != nil {
			panic("dashboard: Deps.Router is required with Deps.Live and must be its event sink")
		}
		deps.Router = events.NewRouter(deps.Chat.EventHistorySize)
	}
	s := &Session{deps: deps}
	s.reducer = NewReducer(projectID, ReducerOptions{
		Clock:           deps.Clock,
		Cache:           deps.Cache,
		DedupWindow:     deps.Chat.DedupWindow,
		SendDedupWindow: deps.Chat.SendDedupWindow,
		LogCapacity:     deps.Chat.LogFeedCapacity,
	})

	popts := PollerOptionsFromConfig(deps.Poll)
	popts.Clock = deps.Clock
	popts.OnSnapshot = s.reducer.ApplySnapshot
	popts.OnFailure = func(error, int) { s.reducer.PollFailed() }
	s.poller = NewPoller(func(ctx context.Context) (models.ProjectStatus, error) {
		return deps.API.GetStatus(ctx, projectID)
	}, popts)
	return s
}

// ProjectID returns the session's project.
func (s *Session) ProjectID() string {
	return s.reducer.ProjectID()
}

// Reducer exposes the underlying reducer.
func (s *Session) Reducer() *Reducer {
	return s.reducer
}

// Router returns the event router the session is subscribed to.
func (s *Session) Router() *events.Router {
	return s.deps.Router
}

// State returns a copy of the current dashboard state.
func (s *Session) State() State {
	return s.reducer.State()
}

// Subscribe registers fn for state changes.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.reducer.Subscribe(fn)
}

// Start subscribes to the live channel and the router, connects, and starts
// polling. A failed connect is not fatal: the transport keeps retrying and
// polling carries the view meanwhile.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.started = true
	pid := s.ProjectID()
	log := logger.GetDashboardLogger()

	if s.deps.Live != nil {
		s.unsubs = append(s.unsubs, s.deps.Live.Subscribe(func(projectID string, env protocol.Envelope) {
			if projectID != pid {
				return
			}
			s.reducer.ApplyEnvelope(env)
		}))
	}

	handler := func(e models.WorkflowEvent) {
		if e.ProjectID != "" && e.ProjectID != pid {
			return
		}
		s.reducer.ApplyEvent(e)
	}
	for _, t := range []models.EventType{
		models.EventStageStarted,
		models.EventStageCompleted,
		models.EventStageFailed,
		models.EventAgentThinking,
	} {
		s.eventSub = append(s.eventSub, s.deps.Router.On(t, handler))
	}
	s.eventSub = append(s.eventSub, s.deps.Router.OnAny(func(e models.WorkflowEvent) {
		if e.ProjectID != "" && e.ProjectID != pid {
			return
		}
		switch e.Severity {
		case models.SeverityError, models.SeverityCritical, models.SeverityWarning:
			s.reducer.AddLog(string(e.Severity), e.Message)
		}
	}))

	s.poller.Start()

	if s.deps.Live != nil {
		if err := s.deps.Live.Connect(ctx, pid); err != nil {
			log.Warn().Err(err).Str("project_id", pid).Msg("Live channel unavailable, relying on polling")
		}
	}
	log.Info().Str("project_id", pid).Msg("Dashboard session started")
	return nil
}

// Stop tears everything down synchronously. After it returns no callback
// mutates this session's state. Stop is idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false

	s.poller.Stop()
	for _, u := range s.unsubs {
		u()
	}
	s.unsubs = nil
	for _, sub := range s.eventSub {
		s.deps.Router.Off(sub)
	}
	s.eventSub = nil
	if s.deps.Live != nil {
		s.deps.Live.Disconnect()
	}

	log := logger.GetDashboardLogger()
	log.Info().Str("project_id", s.ProjectID()).Msg("Dashboard session stopped")
}

// SendMessage appends an optimistic user entry and sends text over HTTP.
// A failed request leaves a synthetic AI error entry in the transcript.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if !s.reducer.BeginSend(text) {
		return ErrDuplicateSend
	}

	reply, err := s.deps.API.Chat(ctx, s.ProjectID(), text)
	if err != nil {
		log := logger.GetDashboardLogger()
		log.Warn().Err(err).Str("project_id", s.ProjectID()).Msg("Chat request failed")
		s.reducer.FinishSend(models.ChatMessage{}, err)
		return fmt.Errorf("send chat message: %w", err)
	}
	s.reducer.FinishSend(models.ChatMessage{
		Content: reply.Message,
		Action:  reply.Action,
		Buttons: reply.Buttons,
	}, nil)
	return nil
}

// Approve clears the review gate and sends the approve command.
func (s *Session) Approve(ctx context.Context) error {
	s.reducer.ClearReview()
	return s.SendMessage(ctx, ApproveToken)
}

// SelectFile changes the selected file.
func (s *Session) SelectFile(path string) error {
	if !s.reducer.SelectFile(path) {
		return fmt.Errorf("%w: %s", ErrUnknownFile, path)
	}
	return nil
}

// ToggleStageDetail expands or collapses a stage's event list.
func (s *Session) ToggleStageDetail(stage models.Stage) bool {
	return s.reducer.ToggleStageDetail(stage)
}

// LoadFile fetches the body of a file that arrived without content
// (typically one learned from a poll snapshot).
func (s *Session) LoadFile(ctx context.Context, path string) (string, error) {
	st := s.reducer.State()
	f, ok := st.File(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFile, path)
	}
	if c := f.Content(); c != "" {
		return c, nil
	}
	content, err := s.deps.API.GetFileContent(ctx, s.ProjectID(), path)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", path, err)
	}
	s.reducer.SetFileContent(path, content, true)
	return content, nil
}

// SaveFile writes user-edited content back. On failure the local content is
// left untouched and the error is shown as the save message.
func (s *Session) SaveFile(ctx context.Context, path, content string) error {
	if err := s.deps.API.SaveFileContent(ctx, s.ProjectID(), path, content); err != nil {
		s.reducer.SetSaveMessage(fmt.Sprintf("Save failed: %v", err))
		return fmt.Errorf("save %s: %w", path, err)
	}
	s.reducer.SetFileContent(path, content, false)
	s.reducer.SetSaveMessage("Saved " + path)
	return nil
}
