// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"io"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

// Image is an inspiration image attached to a project.
type Image struct {
	Filename string
	Data     io.Reader
}

// CreateProjectRequest is the multipart form of the create endpoint.
type CreateProjectRequest struct {
	Name           string
	Type           string
	Requirements   string
	EnableGitHub   bool
	GitHubUsername string
	GitHubToken    string
	GenerateTests  bool
	GenerateDevOps bool
	Images         []Image
}

// CreateProjectResponse is returned by the create endpoint.
type CreateProjectResponse struct {
	ProjectID string `json:"project_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// ActionResponse is the {status, message} body of mutating endpoints.
type ActionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ChatReply is the orchestrator's answer to a chat message.
type ChatReply struct {
	Message string              `json:"message"`
	Action  string              `json:"action,omitempty"`
	Buttons []models.ChatButton `json:"buttons,omitempty"`
	Status  string              `json:"status,omitempty"`
}

// Project is the subset of the backend project record the client reads.
type Project struct {
	ProjectID      string           `json:"project_id"`
	Name           string           `json:"name"`
	ProjectName    string           `json:"project_name"`
	Type           string           `json:"type"`
	Requirements   string           `json:"requirements"`
	Status         string           `json:"status"`
	CurrentStep    string           `json:"current_step"`
	Completed      bool             `json:"completed"`
	CreatedAt      models.Timestamp `json:"created_at"`
	UpdatedAt      models.Timestamp `json:"updated_at"`
	StepsCompleted []string         `json:"steps_completed"`
}

// DisplayName returns whichever name field the backend filled.
func (p Project) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ProjectName
}

// UploadedImage is returned by the upload endpoint.
type UploadedImage struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// Health is the body of /health.
type Health struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Version       string `json:"version"`
	ProjectsCount int    `json:"projects_count"`
}

// ServerConfig is the body of /config.
type ServerConfig struct {
	ModelProvider string          `json:"model_provider"`
	ModelName     string          `json:"model_name"`
	Features      map[string]bool `json:"features"`
}
