// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

// CreateProject submits a new project and returns its id.
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (CreateProjectResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := []struct{ k, v string }{
		{"name", req.Name},
		{"type", req.Type},
		{"requirements", req.Requirements},
		{"enable_github", strconv.FormatBool(req.EnableGitHub)},
		{"github_username", req.GitHubUsername},
		{"github_token", req.GitHubToken},
		{"generate_tests", strconv.FormatBool(req.GenerateTests)},
		{"generate_devops", strconv.FormatBool(req.GenerateDevOps)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.k, f.v); err != nil {
			return CreateProjectResponse{}, fmt.Errorf("write form field %s: %w", f.k, err)
		}
	}
	for _, img := range req.Images {
		if err := writeFile(w, "images", img); err != nil {
			return CreateProjectResponse{}, err
		}
	}
	if err := w.Close(); err != nil {
		return CreateProjectResponse{}, fmt.Errorf("close multipart body: %w", err)
	}

	var resp CreateProjectResponse
	err := c.do(ctx, request{
		op:          "create_project",
		method:      http.MethodPost,
		path:        "projects/create",
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, &resp)
	return resp, err
}

func writeFile(w *multipart.Writer, field string, img Image) error {
	part, err := w.CreateFormFile(field, img.Filename)
	if err != nil {
		return fmt.Errorf("create form file %s: %w", img.Filename, err)
	}
	if _, err := io.Copy(part, img.Data); err != nil {
		return fmt.Errorf("copy image %s: %w", img.Filename, err)
	}
	return nil
}

// GetStatus fetches the status snapshot the poller merges.
func (c *Client) GetStatus(ctx context.Context, projectID string) (models.ProjectStatus, error) {
	var status models.ProjectStatus
	err := c.do(ctx, request{op: "get_status", method: http.MethodGet, path: projectPath(projectID, "status")}, &status)
	return status, err
}

// GetLogs returns the project's accumulated log.
func (c *Client) GetLogs(ctx context.Context, projectID string) ([]models.LogEntry, error) {
	var body struct {
		Logs []models.LogEntry `json:"logs"`
	}
	err := c.do(ctx, request{op: "get_logs", method: http.MethodGet, path: projectPath(projectID, "logs")}, &body)
	return body.Logs, err
}

// ListProjects returns every project summary.
func (c *Client) ListProjects(ctx context.Context) ([]models.ProjectSummary, error) {
	var body struct {
		Projects []models.ProjectSummary `json:"projects"`
	}
	err := c.do(ctx, request{op: "list_projects", method: http.MethodGet, path: "projects"}, &body)
	return body.Projects, err
}

// GetProject returns the full project record.
func (c *Client) GetProject(ctx context.Context, projectID string) (Project, error) {
	var p Project
	err := c.do(ctx, request{op: "get_project", method: http.MethodGet, path: projectPath(projectID)}, &p)
	return p, err
}

// DeleteProject removes the project on the backend.
func (c *Client) DeleteProject(ctx context.Context, projectID string) (ActionResponse, error) {
	var resp ActionResponse
	err := c.do(ctx, request{op: "delete_project", method: http.MethodDelete, path: projectPath(projectID)}, &resp)
	return resp, err
}

// RestartProject reruns the workflow from the start.
func (c *Client) RestartProject(ctx context.Context, projectID string) (ActionResponse, error) {
	var resp ActionResponse
	err := c.do(ctx, request{op: "restart_project", method: http.MethodPost, path: projectPath(projectID, "restart")}, &resp)
	return resp, err
}

// ResumeProject continues a paused workflow, optionally with user input.
func (c *Client) ResumeProject(ctx context.Context, projectID, userInput string) (ActionResponse, error) {
	body, err := jsonBody(map[string]string{"user_input": userInput})
	if err != nil {
		return ActionResponse{}, err
	}
	var resp ActionResponse
	err = c.do(ctx, request{
		op:          "resume_project",
		method:      http.MethodPost,
		path:        projectPath(projectID, "resume"),
		body:        body,
		contentType: "application/json",
	}, &resp)
	return resp, err
}

// StartWorkflow starts the workflow of a configured project.
func (c *Client) StartWorkflow(ctx context.Context, projectID string) (ActionResponse, error) {
	var resp ActionResponse
	err := c.do(ctx, request{op: "start_workflow", method: http.MethodPost, path: projectPath(projectID, "start-workflow")}, &resp)
	return resp, err
}

// Chat sends a chat message and returns the orchestrator's reply.
func (c *Client) Chat(ctx context.Context, projectID, message string) (ChatReply, error) {
	body, err := jsonBody(map[string]string{"project_id": projectID, "message": message})
	if err != nil {
		return ChatReply{}, err
	}
	var resp struct {
		Response ChatReply `json:"response"`
	}
	err = c.do(ctx, request{
		op:          "chat",
		method:      http.MethodPost,
		path:        "chat",
		body:        body,
		contentType: "application/json",
	}, &resp)
	return resp.Response, err
}

// Health reports backend liveness.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, request{op: "health", method: http.MethodGet, path: "health"}, &h)
	return h, err
}

// Config returns the backend's model configuration.
func (c *Client) Config(ctx context.Context) (ServerConfig, error) {
	var sc ServerConfig
	err := c.do(ctx, request{op: "config", method: http.MethodGet, path: "config"}, &sc)
	return sc, err
}
