// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package testutil

import (
	"time"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

// SampleProjects returns three listing rows in different states.
func SampleProjects() []models.ProjectSummary {
	at := models.At(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	return []models.ProjectSummary{
		{ProjectID: "proj1", ProjectName: "Todo API", Status: "completed", StepsCompleted: []string{"requirements", "architecture", "developer", "qa", "devops"}, CreatedAt: at, LastSaved: at},
		{ProjectID: "proj2", ProjectName: "Blog", Status: "awaiting_review", CurrentStep: "architecture", StepsCompleted: []string{"requirements", "architecture"}, CreatedAt: at, LastSaved: at},
		{ProjectID: "proj3", ProjectName: "", Status: "created", CreatedAt: at, LastSaved: at},
	}
}
