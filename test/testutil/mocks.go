// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package testutil

import (
	"context"
	"sync"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/api"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

// FakeBackend records the REST calls screens make and answers from its
// fields. Errors, when set, are returned instead.
type FakeBackend struct {
	mu sync.Mutex

	Projects  []models.ProjectSummary
	ListErr   error
	CreateErr error
	StartErr  error
	NextID    string

	Created []api.CreateProjectRequest
	Started []string
	Lists   int
}

// NewFakeBackend returns a backend listing SampleProjects.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{Projects: SampleProjects(), NextID: "new-project"}
}

func (f *FakeBackend) ListProjects(context.Context) ([]models.ProjectSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Lists++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]models.ProjectSummary(nil), f.Projects...), nil
}

func (f *FakeBackend) CreateProject(_ context.Context, req api.CreateProjectRequest) (api.CreateProjectResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return api.CreateProjectResponse{}, f.CreateErr
	}
	f.Created = append(f.Created, req)
	return api.CreateProjectResponse{ProjectID: f.NextID, Status: "created"}, nil
}

func (f *FakeBackend) StartWorkflow(_ context.Context, projectID string) (api.ActionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StartErr != nil {
		return api.ActionResponse{}, f.StartErr
	}
	f.Started = append(f.Started, projectID)
	return api.ActionResponse{Status: "started"}, nil
}
