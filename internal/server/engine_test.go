// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/protocol"
)

type recorder struct {
	mu   sync.Mutex
	envs []protocol.Envelope
}

func (r *recorder) Broadcast(_ string, env protocol.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
}

func (r *recorder) all() []protocol.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.Envelope(nil), r.envs...)
}

func (r *recorder) events(t models.EventType) []models.WorkflowEvent {
	var out []models.WorkflowEvent
	for _, env := range r.all() {
		if w, ok := env.(protocol.WorkflowEventEnvelope); ok && w.Event.EventType == t {
			out = append(out, w.Event)
		}
	}
	return out
}

func newEngine(t *testing.T, sc *Scenario) (*Engine, *Store, *recorder) {
	t.Helper()
	if sc == nil {
		var err error
		sc, err = DefaultScenario()
		require.NoError(t, err)
	}
	store := NewStore(nil)
	rec := &recorder{}
	e := NewEngine(store, rec, sc, clock.New(), 0)
	t.Cleanup(e.Shutdown)
	return e, store, rec
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestEngine_PlaysScenarioWithReviewGates(t *testing.T) {
	e, store, rec := newEngine(t, nil)
	id := store.Create(Project{Name: "calc", Type: "cli", Requirements: "Build me a calculator app"})

	require.NoError(t, e.Start(id))
	waitFor(t, func() bool { return e.Waiting(id) })

	p, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "awaiting_review", p.Status)
	assert.Equal(t, []string{"requirements"}, p.Steps)
	assert.Contains(t, p.Files["docs/requirements.md"], "calculator")

	assert.ErrorIs(t, e.Start(id), errAlreadyRunning)

	require.True(t, e.Resume(id, "approve"))
	assert.False(t, e.Resume(id, "approve"), "a second resume has nothing to release")
	waitFor(t, func() bool { return len(rec.events(models.EventApprovalRequested)) == 2 && e.Waiting(id) })

	require.True(t, e.Resume(id, "looks good"))
	waitFor(t, func() bool { return len(rec.events(models.EventWorkflowCompleted)) == 1 })

	p, err = store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "completed", p.Status)
	assert.True(t, p.Completed)
	assert.Equal(t, []string{"requirements", "architecture", "developer"}, p.Steps)
	assert.Equal(t, []string{"docs/requirements.md", "docs/architecture.md", "src/main.py", "README.md"}, p.FileOrder)

	granted := rec.events(models.EventApprovalGranted)
	require.Len(t, granted, 2)
	assert.Equal(t, "Approved with feedback: looks good", granted[1].Message)

	// the first file of a stage is auto-focused
	var focused []string
	var reviews []string
	for _, env := range rec.all() {
		switch v := env.(type) {
		case protocol.FileGeneratedEnvelope:
			if v.AutoFocus {
				focused = append(focused, v.Path)
			}
		case protocol.AwaitingReviewEnvelope:
			reviews = append(reviews, v.Stage)
		}
	}
	assert.Equal(t, []string{"docs/requirements.md", "docs/architecture.md", "src/main.py"}, focused)
	assert.Equal(t, []string{"requirements", "architecture"}, reviews)
}

func TestEngine_OptionalStages(t *testing.T) {
	e, store, rec := newEngine(t, nil)
	id := store.Create(Project{Name: "full", GenerateTests: true, GenerateDevOps: true})

	require.NoError(t, e.Start(id))
	for i := 0; i < 2; i++ {
		waitFor(t, func() bool { return e.Waiting(id) })
		require.True(t, e.Resume(id, "approve"))
	}
	waitFor(t, func() bool { return len(rec.events(models.EventWorkflowCompleted)) == 1 })

	started := rec.events(models.EventStageStarted)
	stages := make([]string, 0, len(started))
	for _, ev := range started {
		stages = append(stages, ev.Stage)
		require.NotNil(t, ev.ProgressPercentage)
	}
	assert.Equal(t, []string{"requirements", "architecture", "developer", "qa", "devops"}, stages)
	assert.InDelta(t, 80, *started[4].ProgressPercentage, 0.01)
}

func TestEngine_FailingStage(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: broken
stages:
  - stage: requirements
    agent: Analyst
  - stage: architecture
    agent: Architect
    fail: true
  - stage: developer
    agent: Developer
`))
	require.NoError(t, err)
	e, store, rec := newEngine(t, sc)
	id := store.Create(Project{Name: "x"})

	require.NoError(t, e.Start(id))
	waitFor(t, func() bool { return len(rec.events(models.EventStageFailed)) == 1 })

	failed := rec.events(models.EventStageFailed)[0]
	assert.Equal(t, "architecture", failed.Stage)
	assert.Equal(t, models.SeverityError, failed.Severity)
	assert.Empty(t, rec.events(models.EventWorkflowCompleted))

	waitFor(t, func() bool {
		p, _ := store.Get(id)
		return p.Status == "error"
	})
}

func TestEngine_RestartAndStop(t *testing.T) {
	e, store, rec := newEngine(t, nil)
	id := store.Create(Project{Name: "calc"})

	require.NoError(t, e.Start(id))
	waitFor(t, func() bool { return e.Waiting(id) })

	require.NoError(t, e.Restart(id))
	waitFor(t, func() bool { return len(rec.events(models.EventWorkflowStarted)) == 2 && e.Waiting(id) })

	p, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"requirements"}, p.Steps, "restart wipes earlier progress")

	e.Stop(id)
	assert.False(t, e.Waiting(id))
	assert.False(t, e.Resume(id, "approve"))

	assert.ErrorIs(t, e.Restart("missing"), errProjectNotFound)
	assert.ErrorIs(t, e.Start("missing"), errProjectNotFound)
}

func TestEngine_StepDelayUsesClock(t *testing.T) {
	sc, err := ParseScenario([]byte(`
stages:
  - stage: requirements
    agent: Analyst
    thinking: ["reading"]
`))
	require.NoError(t, err)
	mock := clock.NewMock()
	store := NewStore(mock.Now)
	rec := &recorder{}
	e := NewEngine(store, rec, sc, mock, time.Second)
	t.Cleanup(e.Shutdown)

	id := store.Create(Project{Name: "slow"})
	require.NoError(t, e.Start(id))

	waitFor(t, func() bool { return len(rec.events(models.EventStageStarted)) == 1 })
	assert.Empty(t, rec.events(models.EventAgentThinking))

	// one pause before the thought and one before completion
	waitFor(t, func() bool {
		mock.Add(time.Second)
		return len(rec.events(models.EventWorkflowCompleted)) == 1
	})
	assert.Len(t, rec.events(models.EventAgentThinking), 1)
}

func TestParseScenario_Validation(t *testing.T) {
	_, err := ParseScenario([]byte(`stages: []`))
	assert.Error(t, err)

	_, err = ParseScenario([]byte(`stages: [{stage: deployment}]`))
	assert.ErrorContains(t, err, "unknown stage")

	_, err = ParseScenario([]byte(`stages: [{stage: qa, files: [{path: ../../etc/passwd}]}]`))
	assert.ErrorContains(t, err, "bad file path")

	sc, err := DefaultScenario()
	require.NoError(t, err)
	assert.Len(t, sc.Stages, 5)
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"docs/a.md", "docs/a.md", false},
		{"docs//./a.md", "docs/a.md", false},
		{`src\main.py`, "src/main.py", false},
		{"a/../b.md", "b.md", false},
		{"../x", "", true},
		{"/etc/passwd", "", true},
		{"", "", true},
		{".", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := cleanPath(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, errBadPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
