// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package events

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

func ev(t models.EventType, stage, msg string) models.WorkflowEvent {
	return models.WorkflowEvent{EventType: t, Stage: stage, Message: msg, ProjectID: "p1"}
}

func TestRouter_DispatchOrder(t *testing.T) {
	r := NewRouter(0)
	var calls []string
	r.OnAny(func(e models.WorkflowEvent) { calls = append(calls, "any:"+e.Message) })
	r.On(models.EventStageStarted, func(e models.WorkflowEvent) { calls = append(calls, "typed1:"+e.Message) })
	r.On(models.EventStageStarted, func(e models.WorkflowEvent) { calls = append(calls, "typed2:"+e.Message) })
	r.On(models.EventStageCompleted, func(e models.WorkflowEvent) { calls = append(calls, "other:"+e.Message) })

	r.HandleEvent(ev(models.EventStageStarted, "requirements", "a"))

	assert.Equal(t, []string{"typed1:a", "typed2:a", "any:a"}, calls)
}

func TestRouter_PanickingHandlerIsIsolated(t *testing.T) {
	r := NewRouter(0)
	var got []string
	r.On(models.EventAgentThinking, func(models.WorkflowEvent) { panic("boom") })
	r.On(models.EventAgentThinking, func(e models.WorkflowEvent) { got = append(got, "typed:"+e.Message) })
	r.OnAny(func(e models.WorkflowEvent) { got = append(got, "any:"+e.Message) })

	require.NotPanics(t, func() {
		r.HandleEvent(ev(models.EventAgentThinking, "", "1"))
		r.HandleEvent(ev(models.EventAgentThinking, "", "2"))
	})
	assert.Equal(t, []string{"typed:1", "any:1", "typed:2", "any:2"}, got)
	assert.Len(t, r.History("", 0), 2)
}

func TestRouter_Off(t *testing.T) {
	r := NewRouter(0)
	count := 0
	sub := r.On(models.EventFileGenerated, func(models.WorkflowEvent) { count++ })
	wild := r.OnAny(func(models.WorkflowEvent) { count += 10 })

	r.HandleEvent(ev(models.EventFileGenerated, "", ""))
	assert.Equal(t, 11, count)

	r.Off(sub)
	r.Off(sub)
	r.HandleEvent(ev(models.EventFileGenerated, "", ""))
	assert.Equal(t, 21, count)

	r.Off(wild)
	r.HandleEvent(ev(models.EventFileGenerated, "", ""))
	assert.Equal(t, 21, count)
}

func TestRouter_History(t *testing.T) {
	r := NewRouter(0)
	r.HandleEvent(ev(models.EventStageStarted, "requirements", "1"))
	r.HandleEvent(ev(models.EventAgentThinking, "requirements", "2"))
	r.HandleEvent(ev(models.EventStageCompleted, "requirements", "3"))
	r.HandleEvent(ev(models.EventStageStarted, "architecture", "4"))

	all := r.History("", 0)
	require.Len(t, all, 4)
	assert.Equal(t, "1", all[0].Message)

	started := r.History(models.EventStageStarted, 0)
	require.Len(t, started, 2)
	assert.Equal(t, "4", started[1].Message)

	last := r.History("", 2)
	require.Len(t, last, 2)
	assert.Equal(t, []string{"3", "4"}, []string{last[0].Message, last[1].Message})

	lastStarted := r.History(models.EventStageStarted, 1)
	require.Len(t, lastStarted, 1)
	assert.Equal(t, "4", lastStarted[0].Message)

	// returned slices are copies
	all[0].Message = "mutated"
	assert.Equal(t, "1", r.History("", 0)[0].Message)
}

func TestRouter_HistoryIsBounded(t *testing.T) {
	r := NewRouter(3)
	for i := 0; i < 5; i++ {
		r.HandleEvent(ev(models.EventAgentThinking, "", fmt.Sprint(i)))
	}
	h := r.History("", 0)
	require.Len(t, h, 3)
	assert.Equal(t, "2", h[0].Message)
	assert.Equal(t, "4", h[2].Message)
}

func TestRouter_CurrentStage(t *testing.T) {
	r := NewRouter(0)
	_, ok := r.CurrentStage()
	assert.False(t, ok)

	r.HandleEvent(ev(models.EventStageStarted, "developer", ""))
	r.HandleEvent(ev(models.EventWorkflowPaused, "", ""))

	stage, ok := r.CurrentStage()
	assert.True(t, ok)
	assert.Equal(t, "developer", stage)

	r.ClearHistory()
	assert.Empty(t, r.History("", 0))
	_, ok = r.CurrentStage()
	assert.False(t, ok)
}

func TestRouter_Concurrent(t *testing.T) {
	r := NewRouter(100)
	var mu sync.Mutex
	seen := 0
	r.OnAny(func(models.WorkflowEvent) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.HandleEvent(ev(models.EventAgentResponse, "qa", ""))
				_ = r.History(models.EventAgentResponse, 5)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, seen)
	assert.Len(t, r.History("", 0), 100)
}
