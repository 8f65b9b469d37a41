// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/protocol"
)

var errAlreadyRunning = errors.New("workflow already running")

// Broadcaster delivers envelopes to a project's viewers. *Hub implements it.
type Broadcaster interface {
	Broadcast(projectID string, env protocol.Envelope)
}

// Engine plays the scenario for each started project, one goroutine per run.
type Engine struct {
	store     *Store
	out       Broadcaster
	scenario  *Scenario
	clock     clock.Clock
	stepDelay time.Duration

	mu   sync.Mutex
	runs map[string]*run
	wg   sync.WaitGroup
}

type run struct {
	cancel  context.CancelFunc
	resume  chan string
	done    chan struct{}
	waiting bool
}

// NewEngine returns an idle engine.
func NewEngine(store *Store, out Broadcaster, scenario *Scenario, clk clock.Clock, stepDelay time.Duration) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	return &Engine{
		store:     store,
		out:       out,
		scenario:  scenario,
		clock:     clk,
		stepDelay: stepDelay,
		runs:      make(map[string]*run),
	}
}

// Start launches the workflow of a project that is not running.
func (e *Engine) Start(projectID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.runs[projectID]; ok {
		select {
		case <-r.done:
		default:
			return errAlreadyRunning
		}
	}
	if err := e.store.Update(projectID, func(p *Project) { p.reset() }); err != nil {
		return err
	}
	e.launchLocked(projectID)
	return nil
}

// Restart cancels any current run, wipes the project's progress and starts over.
func (e *Engine) Restart(projectID string) error {
	e.Stop(projectID)
	if err := e.store.Update(projectID, func(p *Project) { p.reset() }); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.launchLocked(projectID)
	return nil
}

// Stop cancels a project's run and waits for it to exit.
func (e *Engine) Stop(projectID string) {
	e.mu.Lock()
	r, ok := e.runs[projectID]
	delete(e.runs, projectID)
	e.mu.Unlock()
	if !ok {
		return
	}
	r.cancel()
	<-r.done
}

// Resume releases a paused run. It reports whether the run was waiting.
func (e *Engine) Resume(projectID, input string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.runs[projectID]
	if !ok || !r.waiting {
		return false
	}
	r.waiting = false
	r.resume <- input
	return true
}

// Waiting reports whether the project is paused at a review gate.
func (e *Engine) Waiting(projectID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.runs[projectID]
	return ok && r.waiting
}

// Shutdown cancels every run and waits for them.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	for _, r := range e.runs {
		r.cancel()
	}
	e.runs = make(map[string]*run)
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Engine) launchLocked(projectID string) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{cancel: cancel, resume: make(chan string, 1), done: make(chan struct{})}
	e.runs[projectID] = r
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(r.done)
		defer cancel()
		if err := e.play(ctx, projectID, r); err != nil && !errors.Is(err, context.Canceled) {
			log := getLog()
			log.Warn().Err(err).Str("project_id", projectID).Msg("Workflow run ended with error")
		}
	}()
}

func (e *Engine) play(ctx context.Context, pid string, r *run) error {
	p, err := e.store.Get(pid)
	if err != nil {
		return err
	}
	stages := make([]ScenarioStage, 0, len(e.scenario.Stages))
	for _, st := range e.scenario.Stages {
		if st.enabled(p) {
			stages = append(stages, st)
		}
	}

	e.setStatus(pid, "running", func(p *Project) { p.Completed = false })
	e.event(pid, models.WorkflowEvent{EventType: models.EventWorkflowStarted, Message: "Workflow started", Severity: models.SeverityInfo})
	e.log(pid, "info", protocol.SystemAgent, fmt.Sprintf("Starting workflow for %s", p.Name))

	for i, st := range stages {
		stage := models.Stage(st.Stage)
		pct := float64(i) / float64(len(stages)) * 100
		_ = e.store.Update(pid, func(p *Project) { p.CurrentStep = st.Stage })
		e.event(pid, models.WorkflowEvent{
			EventType:          models.EventStageStarted,
			Stage:              st.Stage,
			Agent:              st.Agent,
			Message:            fmt.Sprintf("%s stage started", stage.Title()),
			Severity:           models.SeverityInfo,
			ProgressPercentage: &pct,
		})
		e.log(pid, "info", st.Agent, fmt.Sprintf("%s is working on %s", st.Agent, stage.Title()))

		for _, thought := range st.Thinking {
			if err := e.pause(ctx); err != nil {
				return err
			}
			e.event(pid, models.WorkflowEvent{EventType: models.EventAgentThinking, Stage: st.Stage, Agent: st.Agent, Message: thought, Severity: models.SeverityDebug})
		}

		var written []string
		for j, f := range st.Files {
			if err := e.pause(ctx); err != nil {
				return err
			}
			content := expand(f.Content, p)
			rel, err := e.store.WriteFile(pid, f.Path, content)
			if err != nil {
				return err
			}
			written = append(written, rel)
			e.out.Broadcast(pid, protocol.FileGeneratedEnvelope{GeneratedFile: models.GeneratedFile{
				DocType:     f.DocType,
				Filename:    models.FileFromPath(rel).Filename,
				Path:        rel,
				Preview:     preview(content),
				FullContent: content,
				AutoFocus:   j == 0,
				Timestamp:   models.At(e.clock.Now()),
			}})
			e.event(pid, models.WorkflowEvent{EventType: models.EventFileGenerated, Stage: st.Stage, Agent: st.Agent, Message: "Generated " + rel, Data: mustJSON(map[string]string{"path": rel}), Severity: models.SeveritySuccess})
		}

		if err := e.pause(ctx); err != nil {
			return err
		}
		if st.Fail {
			e.event(pid, models.WorkflowEvent{EventType: models.EventStageFailed, Stage: st.Stage, Agent: st.Agent, Message: stage.Title() + " stage failed", Severity: models.SeverityError})
			e.log(pid, "error", st.Agent, stage.Title()+" stage failed")
			e.setStatus(pid, "error", nil)
			return nil
		}
		_ = e.store.Update(pid, func(p *Project) { p.Steps = append(p.Steps, st.Stage) })
		e.event(pid, models.WorkflowEvent{EventType: models.EventStageCompleted, Stage: st.Stage, Agent: st.Agent, Message: stage.Title() + " stage completed", Severity: models.SeveritySuccess})
		e.log(pid, "success", st.Agent, stage.Title()+" complete")

		if st.Review != "" {
			if err := e.awaitApproval(ctx, pid, r, st, written); err != nil {
				return err
			}
		}
	}

	done := e.scenario.Done
	if done == "" {
		done = "Workflow complete."
	}
	e.setStatus(pid, "completed", func(p *Project) {
		p.Completed = true
		p.CurrentStep = ""
	})
	e.event(pid, models.WorkflowEvent{EventType: models.EventWorkflowCompleted, Message: done, Severity: models.SeveritySuccess})
	e.out.Broadcast(pid, protocol.ChatResponseEnvelope{Message: done, Action: "complete", Timestamp: models.At(e.clock.Now())})
	e.log(pid, "success", protocol.SystemAgent, done)
	return nil
}

func (e *Engine) awaitApproval(ctx context.Context, pid string, r *run, st ScenarioStage, files []string) error {
	now := models.At(e.clock.Now())
	e.out.Broadcast(pid, protocol.ChatResponseEnvelope{
		Message:   st.Review,
		Action:    "file_ready",
		Buttons:   []models.ChatButton{{Label: "Approve", Action: "approve", Variant: "primary"}},
		Timestamp: now,
	})

	e.mu.Lock()
	r.waiting = true
	e.mu.Unlock()

	e.setStatus(pid, "awaiting_review", nil)
	e.out.Broadcast(pid, protocol.AwaitingReviewEnvelope{Stage: st.Stage, Prompt: st.Review, Files: files, Timestamp: now})
	e.event(pid, models.WorkflowEvent{EventType: models.EventApprovalRequested, Stage: st.Stage, Message: st.Review, Data: mustJSON(map[string][]string{"files": files}), Severity: models.SeverityInfo})
	e.event(pid, models.WorkflowEvent{EventType: models.EventWorkflowPaused, Stage: st.Stage, Message: "Waiting for approval", Severity: models.SeverityInfo})

	select {
	case input := <-r.resume:
		msg := "Approved"
		if input != "" && input != "approve" {
			msg = "Approved with feedback: " + input
		}
		e.event(pid, models.WorkflowEvent{EventType: models.EventApprovalGranted, Stage: st.Stage, Message: msg, Severity: models.SeveritySuccess})
		e.event(pid, models.WorkflowEvent{EventType: models.EventWorkflowResumed, Message: "Workflow resumed", Severity: models.SeverityInfo})
		e.setStatus(pid, "running", nil)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) pause(ctx context.Context) error {
	if e.stepDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-e.clock.After(e.stepDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) setStatus(pid, status string, fn func(p *Project)) {
	_ = e.store.Update(pid, func(p *Project) {
		p.Status = status
		if fn != nil {
			fn(p)
		}
	})
	e.out.Broadcast(pid, protocol.StatusUpdateEnvelope{Status: status, Timestamp: models.At(e.clock.Now())})
}

func (e *Engine) event(pid string, ev models.WorkflowEvent) {
	ev.ProjectID = pid
	ev.Timestamp = models.At(e.clock.Now())
	e.out.Broadcast(pid, protocol.WorkflowEventEnvelope{Event: ev})
}

func (e *Engine) log(pid, level, agent, msg string) {
	now := models.At(e.clock.Now())
	_ = e.store.Update(pid, func(p *Project) {
		p.Logs = append(p.Logs, models.LogEntry{Level: level, Message: msg, Agent: agent, Timestamp: now})
	})
	e.out.Broadcast(pid, protocol.LogEnvelope{Level: level, Message: msg, Agent: agent, Timestamp: now})
}

func preview(content string) string {
	const n = 500
	if len(content) <= n {
		return content
	}
	return content[:n] + "..."
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
