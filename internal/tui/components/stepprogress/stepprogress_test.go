// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package stepprogress

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

func TestFromStages(t *testing.T) {
	m := models.NewStageMap()
	m[models.StageRequirements].Status = models.StatusCompleted
	m[models.StageArchitecture].Status = models.StatusRunning
	delete(m, models.StageDevOps)

	steps := FromStages(m)
	require.Len(t, steps, 5)
	assert.Equal(t, models.StageRequirements, steps[0].Stage)
	assert.Equal(t, models.StatusRunning, steps[1].Status)
	assert.Equal(t, models.StatusPending, steps[4].Status)
}

func TestView(t *testing.T) {
	tests := []struct {
		name     string
		statuses []models.StageStatus
		want     []string
	}{
		{"running", []models.StageStatus{models.StatusCompleted, models.StatusRunning, models.StatusPending, models.StatusPending, models.StatusPending}, []string{"2/5", "Architecture"}},
		{"failed", []models.StageStatus{models.StatusCompleted, models.StatusCompleted, models.StatusFailed, models.StatusPending, models.StatusPending}, []string{"3/5", "Developer failed"}},
		{"done", []models.StageStatus{models.StatusCompleted, models.StatusCompleted, models.StatusCompleted, models.StatusCompleted, models.StatusCompleted}, []string{"5/5", "Complete"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := make([]Step, len(models.Stages))
			for i, st := range models.Stages {
				steps[i] = Step{Stage: st, Status: tt.statuses[i]}
			}
			view := ansi.Strip(New().SetWidth(10).SetSteps(steps).View())
			for _, w := range tt.want {
				assert.Contains(t, view, w)
			}
		})
	}

	assert.Empty(t, New().View())
}

func TestPipeline(t *testing.T) {
	steps := FromStages(models.NewStageMap())
	out := ansi.Strip(New().SetSteps(steps).Pipeline())
	assert.Contains(t, out, "○ Requirements → ○ Architecture")
}
