// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stepprogress renders the workflow stage pipeline as a compact bar.
package stepprogress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/layout"
)

// Step is one stage in display order.
type Step struct {
	Stage  models.Stage
	Status models.StageStatus
}

// Model represents the step progress component
type Model struct {
	steps []Step
	width int
}

// New creates a new step progress model
func New() Model {
	return Model{width: 20}
}

// FromStages orders a stage map by the canonical pipeline.
func FromStages(stages map[models.Stage]*models.StageInfo) []Step {
	out := make([]Step, 0, len(models.Stages))
	for _, st := range models.Stages {
		status := models.StatusPending
		if info, ok := stages[st]; ok && info != nil {
			status = info.Status
		}
		out = append(out, Step{Stage: st, Status: status})
	}
	return out
}

// SetSteps sets the list of steps
func (m Model) SetSteps(steps []Step) Model {
	m.steps = steps
	return m
}

// SetWidth sets the progress bar width
func (m Model) SetWidth(w int) Model {
	if w < 4 {
		w = 4
	}
	m.width = w
	return m
}

// View renders: [▓▓▓▓▓░░░░░] 2/5 Developer
func (m Model) View() string {
	if len(m.steps) == 0 {
		return ""
	}

	completed := 0
	current := -1
	failed := -1
	for i, s := range m.steps {
		switch s.Status {
		case models.StatusCompleted:
			completed++
		case models.StatusRunning:
			if current < 0 {
				current = i
			}
		case models.StatusFailed:
			if failed < 0 {
				failed = i
			}
		}
	}

	total := len(m.steps)
	filled := completed * m.width / total
	if current >= 0 {
		// half a segment for the stage in flight
		filled = (completed*m.width + m.width/2) / total
	}

	var bar strings.Builder
	for i := 0; i < m.width; i++ {
		if i < filled {
			bar.WriteString(layout.SuccessStyle.Render("▓"))
		} else {
			bar.WriteString(layout.MutedStyle.Render("░"))
		}
	}

	shown := completed
	label := ""
	switch {
	case failed >= 0:
		shown = failed + 1
		label = layout.ErrorStyle.Render(m.steps[failed].Stage.Title() + " failed")
	case current >= 0:
		shown = current + 1
		label = lipgloss.NewStyle().Foreground(layout.RunningColor).Render(m.steps[current].Stage.Title())
	case completed == total:
		label = layout.SuccessStyle.Render("Complete ✓")
	}

	return fmt.Sprintf("[%s] %s %s", bar.String(), layout.MutedStyle.Render(fmt.Sprintf("%d/%d", shown, total)), label)
}

// Pipeline renders the stages inline: ✓ Requirements → ● Architecture → ○ Developer
func (m Model) Pipeline() string {
	parts := make([]string, 0, len(m.steps))
	for _, s := range m.steps {
		style := layout.StageStatusStyle(s.Status)
		parts = append(parts, style.Render(layout.StageIcon(s.Status)+" "+s.Stage.Title()))
	}
	return strings.Join(parts, layout.MutedStyle.Render(" → "))
}
