// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package events fans structured workflow events out to subscribers and
// keeps a bounded history for replay.
package events

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/samber/lo"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

// Wildcard subscribes to every event type.
const Wildcard models.EventType = "*"

// DefaultHistorySize bounds the history when NewRouter is given no size.
const DefaultHistorySize = 1000

// Handler receives one event. Handlers run on the caller's goroutine.
type Handler func(models.WorkflowEvent)

// Subscription identifies a registered handler for Off.
type Subscription struct {
	eventType models.EventType
	id        uint64
}

type subscriber struct {
	id uint64
	fn Handler
}

// Router is a typed publish/subscribe dispatcher with bounded history.
// It is safe for concurrent use.
type Router struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[models.EventType][]subscriber
	history  []models.WorkflowEvent
	capacity int
}

// NewRouter returns a router keeping at most historySize events.
func NewRouter(historySize int) *Router {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Router{
		handlers: make(map[models.EventType][]subscriber),
		capacity: historySize,
	}
}

// On registers fn for events of eventType.
func (r *Router) On(eventType models.EventType, fn Handler) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.handlers[eventType] = append(r.handlers[eventType], subscriber{id: r.nextID, fn: fn})
	return Subscription{eventType: eventType, id: r.nextID}
}

// OnAny registers fn for every event.
func (r *Router) OnAny(fn Handler) Subscription {
	return r.On(Wildcard, fn)
}

// Off removes a handler. Removing twice is a no-op.
func (r *Router) Off(sub Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.handlers[sub.eventType]
	subs = lo.Reject(subs, func(s subscriber, _ int) bool { return s.id == sub.id })
	if len(subs) == 0 {
		delete(r.handlers, sub.eventType)
		return
	}
	r.handlers[sub.eventType] = subs
}

// HandleEvent appends e to the history, then calls every handler for its
// exact type followed by every wildcard handler. A panicking handler is
// logged and skipped.
func (r *Router) HandleEvent(e models.WorkflowEvent) {
	r.mu.Lock()
	r.history = append(r.history, e)
	if over := len(r.history) - r.capacity; over > 0 {
		r.history = append([]models.WorkflowEvent(nil), r.history[over:]...)
	}
	typed := append([]subscriber(nil), r.handlers[e.EventType]...)
	var wild []subscriber
	if e.EventType != Wildcard {
		wild = append(wild, r.handlers[Wildcard]...)
	}
	r.mu.Unlock()

	for _, s := range typed {
		r.call(s, e)
	}
	for _, s := range wild {
		r.call(s, e)
	}
}

func (r *Router) call(s subscriber, e models.WorkflowEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			log := logger.GetEventsLogger()
			log.Error().
				Str("event_type", string(e.EventType)).
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Msg("Event handler panicked")
		}
	}()
	s.fn(e)
}

// History returns the most recent events, oldest first. An empty eventType
// matches every event; limit <= 0 means no limit.
func (r *Router) History(eventType models.EventType, limit int) []models.WorkflowEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.history
	if eventType != "" && eventType != Wildcard {
		matched = lo.Filter(r.history, func(e models.WorkflowEvent, _ int) bool {
			return e.EventType == eventType
		})
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return append([]models.WorkflowEvent(nil), matched...)
}

// CurrentStage returns the stage of the newest event that names one.
func (r *Router) CurrentStage() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, _, ok := lo.FindLastIndexOf(r.history, func(e models.WorkflowEvent) bool {
		return e.HasStage()
	})
	if !ok {
		return "", false
	}
	return e.Stage, true
}

// ClearHistory drops all retained events. Handlers stay registered.
func (r *Router) ClearHistory() {
	r.mu.Lock()
	r.history = nil
	r.mu.Unlock()
}
