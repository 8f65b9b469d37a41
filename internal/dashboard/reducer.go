// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/samber/lo"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/cache"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/protocol"
)

const (
	DefaultDedupWindow     = 2 * time.Second
	DefaultSendDedupWindow = 5 * time.Second
	DefaultLogCapacity     = 200
	maxStageEvents         = 50
)

// ReducerOptions configures a Reducer. Zero values fall back to defaults.
type ReducerOptions struct {
	Clock           clock.Clock
	Cache           *cache.SessionCache // nil disables persistence
	DedupWindow     time.Duration
	SendDedupWindow time.Duration
	LogCapacity     int
}

// Reducer owns the dashboard State of one project. Every mutation takes the
// lock, so the live channel, the poller and user actions may call it from
// different goroutines. Subscribers are notified after the lock is released.
type Reducer struct {
	opts ReducerOptions

	mu    sync.Mutex
	state State

	smu    sync.RWMutex
	nextID uint64
	subs   map[uint64]func(State)
}

// dirty flags which cached pieces a mutation touched.
type dirty uint8

const (
	dirtyView dirty = 1 << iota
	dirtyChat
	dirtyStatus
	dirtyFiles
)

// NewReducer returns a reducer for projectID. When a cache is configured the
// last persisted chat, status and files are restored before it is returned.
func NewReducer(projectID string, opts ReducerOptions) *Reducer {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = DefaultDedupWindow
	}
	if opts.SendDedupWindow <= 0 {
		opts.SendDedupWindow = DefaultSendDedupWindow
	}
	if opts.LogCapacity <= 0 {
		opts.LogCapacity = DefaultLogCapacity
	}
	r := &Reducer{
		opts:  opts,
		state: newState(projectID),
		subs:  make(map[uint64]func(State)),
	}
	r.restore()
	return r
}

func (r *Reducer) restore() {
	if r.opts.Cache == nil {
		return
	}
	snap := r.opts.Cache.Load(r.state.ProjectID)
	if snap.Empty() {
		return
	}
	s := &r.state
	s.Chat = snap.Chat
	if snap.Status != nil {
		r.mergeSnapshot(s, *snap.Status)
	}
	for _, f := range snap.Files {
		if s.fileIndex(f.Key()) < 0 {
			s.Files = append(s.Files, f)
		}
	}
	s.Restored = true

	log := logger.GetDashboardLogger()
	log.Debug().
		Str("project_id", s.ProjectID).
		Int("chat", len(s.Chat)).
		Int("files", len(s.Files)).
		Msg("Restored session from cache")
}

// ProjectID returns the project this reducer belongs to.
func (r *Reducer) ProjectID() string {
	return r.state.ProjectID
}

// State returns a deep copy of the current state.
func (r *Reducer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// Subscribe registers fn to receive the state after every change.
func (r *Reducer) Subscribe(fn func(State)) (unsubscribe func()) {
	r.smu.Lock()
	r.nextID++
	id := r.nextID
	r.subs[id] = fn
	r.smu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.smu.Lock()
			delete(r.subs, id)
			r.smu.Unlock()
		})
	}
}

// update runs fn under the lock, persists what it touched and notifies
// subscribers. fn reports what changed; zero means nothing did.
func (r *Reducer) update(fn func(s *State) dirty) {
	r.mu.Lock()
	d := fn(&r.state)
	if d == 0 {
		r.mu.Unlock()
		return
	}
	r.state.UpdatedAt = r.opts.Clock.Now()
	r.persistLocked(d)
	snap := r.state.Clone()
	r.mu.Unlock()

	r.notify(snap)
}

// persistLocked writes while holding the lock so cache writes land in
// mutation order.
func (r *Reducer) persistLocked(d dirty) {
	c := r.opts.Cache
	if c == nil {
		return
	}
	log := logger.GetDashboardLogger()
	pid := r.state.ProjectID
	if d&dirtyChat != 0 {
		if err := c.SaveChat(pid, r.state.Chat); err != nil {
			log.Warn().Err(err).Str("project_id", pid).Msg("Failed to cache chat transcript")
		}
	}
	if d&(dirtyStatus|dirtyFiles) != 0 {
		if err := c.SaveStatus(pid, r.state.snapshot()); err != nil {
			log.Warn().Err(err).Str("project_id", pid).Msg("Failed to cache status")
		}
	}
	if d&dirtyFiles != 0 {
		if err := c.SaveFiles(pid, r.state.Files); err != nil {
			log.Warn().Err(err).Str("project_id", pid).Msg("Failed to cache files")
		}
	}
}

func (r *Reducer) notify(s State) {
	r.smu.RLock()
	subs := lo.Values(r.subs)
	r.smu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					log := logger.GetDashboardLogger()
					log.Error().
						Str("panic", fmt.Sprint(rec)).
						Bytes("stack", debug.Stack()).
						Msg("State subscriber panicked")
				}
			}()
			fn(s)
		}()
	}
}

// ApplyEnvelope folds one live-channel envelope into the state.
// Workflow events are ignored here; they arrive through ApplyEvent via the
// event router so each is applied exactly once.
func (r *Reducer) ApplyEnvelope(env protocol.Envelope) {
	switch e := env.(type) {
	case protocol.LogEnvelope:
		r.update(func(s *State) dirty {
			r.appendLog(s, LogLine{Level: e.Level, Agent: e.Agent, Message: e.Message, Timestamp: e.Timestamp.Or(r.opts.Clock.Now())})
			return dirtyView
		})
	case protocol.FileGeneratedEnvelope:
		r.update(func(s *State) dirty { return r.upsertFile(s, e.GeneratedFile) })
	case protocol.ChatMessageEnvelope:
		msg := models.ChatMessage{
			Role:      models.NormalizeRole(e.Role),
			Content:   e.Content,
			Timestamp: e.Timestamp.Or(r.opts.Clock.Now()),
		}
		r.update(func(s *State) dirty { return r.appendChat(s, msg) })
	case protocol.ChatResponseEnvelope:
		msg := models.ChatMessage{
			Role:      models.RoleAI,
			Content:   e.Reply(),
			Timestamp: e.Timestamp.Or(r.opts.Clock.Now()),
			Action:    e.Action,
			Buttons:   e.Buttons,
		}
		r.update(func(s *State) dirty {
			d := r.appendChat(s, msg)
			if s.Loading {
				s.Loading = false
				d |= dirtyView
			}
			return d
		})
	case protocol.AwaitingReviewEnvelope:
		r.update(func(s *State) dirty { return r.awaitReview(s, e) })
	case protocol.StatusUpdateEnvelope:
		r.update(func(s *State) dirty {
			if s.Status == e.Status {
				return 0
			}
			s.Status = e.Status
			return dirtyStatus
		})
	case protocol.ConnectionStatusEnvelope:
		r.update(func(s *State) dirty {
			s.Connected = e.Connected
			s.ReconnectAttempts = e.ReconnectAttempts
			return dirtyView
		})
	case protocol.WorkflowEventEnvelope:
	}
}

// ApplyEvent folds a workflow event into the stage map.
func (r *Reducer) ApplyEvent(e models.WorkflowEvent) {
	r.update(func(s *State) dirty { return r.applyEvent(s, e) })
}

func (r *Reducer) applyEvent(s *State, e models.WorkflowEvent) dirty {
	if !e.HasStage() {
		return 0
	}
	st, ok := models.ParseStage(e.Stage)
	if !ok {
		log := logger.GetDashboardLogger()
		log.Debug().Str("stage", e.Stage).Str("event", string(e.EventType)).Msg("Ignoring event for unknown stage")
		return 0
	}
	info := s.Stages[st]
	if info == nil {
		info = &models.StageInfo{Stage: st, Status: models.StatusPending}
		s.Stages[st] = info
	}
	at := e.Timestamp.Or(r.opts.Clock.Now())

	var d dirty
	switch e.EventType {
	case models.EventStageStarted:
		r.transition(s, info, models.StatusRunning, e)
		info.StartedAt = at
		info.EndedAt = time.Time{}
		if e.Agent != "" {
			info.Agent = e.Agent
		}
		info.Message = e.Message
		// the backend moved on, so whatever gate was open has been passed
		if s.AwaitingReview {
			s.AwaitingReview = false
			s.ReviewStage = ""
			s.ReviewPrompt = ""
			d |= dirtyView
		}
	case models.EventStageCompleted:
		r.transition(s, info, models.StatusCompleted, e)
		info.EndedAt = at
		info.Message = e.Message
	case models.EventStageFailed:
		r.transition(s, info, models.StatusFailed, e)
		info.EndedAt = at
		info.Message = e.Message
	case models.EventAgentThinking:
		info.Message = e.Message
		if e.Agent != "" {
			info.Agent = e.Agent
		}
	}

	info.Events = append(info.Events, e)
	if over := len(info.Events) - maxStageEvents; over > 0 {
		info.Events = append([]models.WorkflowEvent(nil), info.Events[over:]...)
	}

	switch e.EventType {
	case models.EventStageStarted, models.EventStageCompleted, models.EventStageFailed:
		return d | dirtyStatus
	}
	return d | dirtyView
}

// transition applies next as the stage status. Backward moves are applied
// (later event wins) but logged and counted.
func (r *Reducer) transition(s *State, info *models.StageInfo, next models.StageStatus, e models.WorkflowEvent) {
	if info.Status.Regresses(next) {
		s.Anomalies++
		log := logger.GetDashboardLogger()
		log.Warn().
			Str("project_id", s.ProjectID).
			Str("stage", string(info.Stage)).
			Str("from", string(info.Status)).
			Str("to", string(next)).
			Str("event", string(e.EventType)).
			Msg("Stage moved backwards")
	}
	info.Status = next
}

// ApplySnapshot merges a polled status snapshot. Snapshots only move stages
// forward and only add files whose path is not known yet.
func (r *Reducer) ApplySnapshot(snap models.ProjectStatus) {
	r.update(func(s *State) dirty {
		d := r.mergeSnapshot(s, snap)
		if s.PollFailures != 0 {
			s.PollFailures = 0
			d |= dirtyView
		}
		return d
	})
}

func (r *Reducer) mergeSnapshot(s *State, snap models.ProjectStatus) dirty {
	var d dirty
	if snap.Status != "" && snap.Status != s.Status {
		s.Status = snap.Status
		d |= dirtyStatus
	}
	if snap.Completed != s.Completed {
		s.Completed = snap.Completed
		d |= dirtyStatus
	}
	for _, name := range snap.StepsCompleted {
		st, ok := models.ParseStage(name)
		if !ok {
			continue
		}
		info := s.Stages[st]
		if !info.Status.Terminal() {
			info.Status = models.StatusCompleted
			d |= dirtyStatus
		}
	}
	if st, ok := models.ParseStage(snap.CurrentStep); ok && !snap.Completed {
		info := s.Stages[st]
		if info.Status == models.StatusPending {
			info.Status = models.StatusRunning
			d |= dirtyStatus
		}
	}
	for _, f := range snap.GeneratedFiles {
		if f.Key() == "" || s.fileIndex(f.Key()) >= 0 {
			continue
		}
		s.Files = append(s.Files, f)
		d |= dirtyFiles
	}
	return d
}

// PollFailed records a failed status fetch and returns the failure streak.
func (r *Reducer) PollFailed() int {
	var n int
	r.update(func(s *State) dirty {
		s.PollFailures++
		n = s.PollFailures
		return dirtyView
	})
	return n
}

func (r *Reducer) upsertFile(s *State, f models.GeneratedFile) dirty {
	key := f.Key()
	if key == "" {
		return 0
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = models.At(r.opts.Clock.Now())
	}
	if idx := s.fileIndex(key); idx >= 0 {
		s.Files[idx] = f
	} else {
		s.Files = append(s.Files, f)
	}
	if f.AutoFocus {
		s.SelectedFile = key
	}
	return dirtyFiles
}

func (r *Reducer) appendChat(s *State, msg models.ChatMessage) dirty {
	if strings.TrimSpace(msg.Content) == "" {
		return 0
	}
	if lo.ContainsBy(s.Chat, func(m models.ChatMessage) bool { return m.DuplicateOf(msg, r.opts.DedupWindow) }) {
		return 0
	}
	s.Chat = append(s.Chat, msg)
	return dirtyChat
}

func (r *Reducer) awaitReview(s *State, e protocol.AwaitingReviewEnvelope) dirty {
	var d dirty
	if !s.AwaitingReview || s.ReviewStage != e.Stage || s.ReviewPrompt != e.Prompt {
		s.AwaitingReview = true
		s.ReviewStage = e.Stage
		s.ReviewPrompt = e.Prompt
		d |= dirtyView
	}
	if s.SelectedFile == "" && len(s.Files) > 0 {
		s.SelectedFile = s.Files[len(s.Files)-1].Key()
		d |= dirtyView
	}
	return d
}

func (r *Reducer) appendLog(s *State, line LogLine) {
	s.Logs = append(s.Logs, line)
	if over := len(s.Logs) - r.opts.LogCapacity; over > 0 {
		s.Logs = append([]LogLine(nil), s.Logs[over:]...)
	}
}

// BeginSend appends an optimistic user entry for text and marks the chat as
// loading. It returns false, changing nothing, when the same text was sent
// within the send dedup window.
func (r *Reducer) BeginSend(text string) bool {
	now := r.opts.Clock.Now()
	accepted := false
	r.update(func(s *State) dirty {
		recent := lo.ContainsBy(s.Chat, func(m models.ChatMessage) bool {
			return m.Role == models.RoleUser && m.Content == text && now.Sub(m.Timestamp) < r.opts.SendDedupWindow && now.Sub(m.Timestamp) >= -r.opts.SendDedupWindow
		})
		if recent {
			return 0
		}
		accepted = true
		s.Chat = append(s.Chat, models.ChatMessage{Role: models.RoleUser, Content: text, Timestamp: now})
		s.Loading = true
		return dirtyChat
	})
	return accepted
}

// FinishSend records the reply to a chat request, or a synthetic AI error
// entry when the request failed.
func (r *Reducer) FinishSend(reply models.ChatMessage, err error) {
	now := r.opts.Clock.Now()
	r.update(func(s *State) dirty {
		d := dirtyView
		s.Loading = false
		if err != nil {
			s.Chat = append(s.Chat, models.ChatMessage{
				Role:      models.RoleAI,
				Content:   fmt.Sprintf("Sorry, the message could not be delivered: %v", err),
				Timestamp: now,
				Action:    "error",
			})
			return d | dirtyChat
		}
		reply.Role = models.RoleAI
		if reply.Timestamp.IsZero() {
			reply.Timestamp = now
		}
		return d | r.appendChat(s, reply)
	})
}

// ClearReview drops the review gate locally.
func (r *Reducer) ClearReview() {
	r.update(func(s *State) dirty {
		if !s.AwaitingReview {
			return 0
		}
		s.AwaitingReview = false
		s.ReviewStage = ""
		s.ReviewPrompt = ""
		return dirtyView
	})
}

// SelectFile points the selection at key. Unknown keys are rejected.
func (r *Reducer) SelectFile(key string) bool {
	ok := false
	r.update(func(s *State) dirty {
		if s.fileIndex(key) < 0 {
			return 0
		}
		ok = true
		if s.SelectedFile == key {
			return 0
		}
		s.SelectedFile = key
		return dirtyView
	})
	return ok
}

// ToggleStageDetail flips the expanded flag of a stage and returns the new value.
func (r *Reducer) ToggleStageDetail(st models.Stage) bool {
	var expanded bool
	r.update(func(s *State) dirty {
		expanded = !s.Expanded[st]
		if expanded {
			s.Expanded[st] = true
		} else {
			delete(s.Expanded, st)
		}
		return dirtyView
	})
	return expanded
}

// SetFileContent stores the full content of a file. When onlyIfEmpty is set
// the content is only filled in for files that have none, so a lazily
// fetched body never clobbers a live-streamed one.
func (r *Reducer) SetFileContent(key, content string, onlyIfEmpty bool) {
	r.update(func(s *State) dirty {
		idx := s.fileIndex(key)
		if idx < 0 {
			return 0
		}
		if onlyIfEmpty && s.Files[idx].Content() != "" {
			return 0
		}
		s.Files[idx].FullContent = content
		return dirtyFiles
	})
}

// SetSaveMessage sets the transient file viewer message.
func (r *Reducer) SetSaveMessage(msg string) {
	r.update(func(s *State) dirty {
		s.SaveMessage = msg
		return dirtyView
	})
}

// AddLog appends a client-side line to the activity feed.
func (r *Reducer) AddLog(level, message string) {
	now := r.opts.Clock.Now()
	r.update(func(s *State) dirty {
		r.appendLog(s, LogLine{Level: level, Agent: protocol.SystemAgent, Message: message, Timestamp: now})
		return dirtyView
	})
}
