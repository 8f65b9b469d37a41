// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1", opts...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCreateProject_Multipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/projects/create", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "calc", r.FormValue("name"))
		assert.Equal(t, "web", r.FormValue("type"))
		assert.Equal(t, "Build me a calculator app", r.FormValue("requirements"))
		assert.Equal(t, "false", r.FormValue("enable_github"))
		assert.Equal(t, "true", r.FormValue("generate_tests"))
		assert.Equal(t, "false", r.FormValue("generate_devops"))

		files := r.MultipartForm.File["images"]
		require.Len(t, files, 1)
		assert.Equal(t, "mock.png", files[0].Filename)
		f, err := files[0].Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "PNGDATA", string(data))

		writeJSON(w, http.StatusOK, map[string]string{"project_id": "p-1", "status": "created", "message": "ok"})
	})

	resp, err := c.CreateProject(context.Background(), CreateProjectRequest{
		Name:          "calc",
		Type:          "web",
		Requirements:  "Build me a calculator app",
		GenerateTests: true,
		Images:        []Image{{Filename: "mock.png", Data: strings.NewReader("PNGDATA")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "p-1", resp.ProjectID)
	assert.Equal(t, "created", resp.Status)
}

func TestGetStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/projects/p%201/status", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{"status":"running","current_step":null,"completed":false,"steps_completed":["requirements"],"generated_files":["docs/requirements.md"]}`)
	})

	st, err := c.GetStatus(context.Background(), "p 1")
	require.NoError(t, err)
	assert.Equal(t, "running", st.Status)
	assert.Empty(t, st.CurrentStep)
	assert.Equal(t, []string{"requirements"}, st.StepsCompleted)
	require.Len(t, st.GeneratedFiles, 1)
	assert.Equal(t, "docs/requirements.md", st.GeneratedFiles[0].Key())
}

func TestChat_UnwrapsResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"project_id": "p", "message": "approve"}, body)
		_, _ = io.WriteString(w, `{"response":{"message":"Approved","action":"resume","buttons":[{"label":"OK","action":"noop","variant":"secondary"}]}}`)
	})

	reply, err := c.Chat(context.Background(), "p", "approve")
	require.NoError(t, err)
	assert.Equal(t, "Approved", reply.Message)
	assert.Equal(t, "resume", reply.Action)
	require.Len(t, reply.Buttons, 1)
	assert.Equal(t, "secondary", reply.Buttons[0].Variant)
}

func TestFileEndpoints(t *testing.T) {
	var saved string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/projects/p/files":
			writeJSON(w, http.StatusOK, map[string]any{"files": []string{"docs/a.md", "src/main.py"}})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/projects/p/files/content":
			assert.Equal(t, "docs/a.md", r.URL.Query().Get("file_path"))
			assert.Equal(t, "docs/a.md", r.URL.Query().Get("path"))
			writeJSON(w, http.StatusOK, map[string]string{"content": "# A"})
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/projects/p/files/content":
			assert.Equal(t, "docs/a.md", r.URL.Query().Get("path"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			saved = body["content"]
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/projects/p/upload-image":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "p", r.FormValue("project_id"))
			_, hdr, err := r.FormFile("file")
			require.NoError(t, err)
			writeJSON(w, http.StatusOK, map[string]string{"filename": hdr.Filename, "path": "uploads/" + hdr.Filename})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	files, err := c.ListFiles(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.md", "src/main.py"}, files)

	content, err := c.GetFileContent(ctx, "p", "docs/a.md")
	require.NoError(t, err)
	assert.Equal(t, "# A", content)

	require.NoError(t, c.SaveFileContent(ctx, "p", "docs/a.md", "# A v2"))
	assert.Equal(t, "# A v2", saved)

	up, err := c.UploadImage(ctx, "p", Image{Filename: "sketch.jpg", Data: strings.NewReader("jpg")})
	require.NoError(t, err)
	assert.Equal(t, "uploads/sketch.jpg", up.Path)
}

func TestLifecycleEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /api/v1/projects":
			_, _ = io.WriteString(w, `{"projects":[{"project_id":"p","project_name":"calc","status":"running","current_step":"qa","steps_completed":[],"created_at":"2025-03-01T10:00:00"}]}`)
		case "GET /api/v1/projects/p":
			_, _ = io.WriteString(w, `{"project_id":"p","name":"calc","status":"running","extra":{"x":1}}`)
		case "DELETE /api/v1/projects/p":
			writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "deleted"})
		case "POST /api/v1/projects/p/restart":
			writeJSON(w, http.StatusOK, map[string]string{"status": "restarted"})
		case "POST /api/v1/projects/p/start-workflow":
			writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
		case "POST /api/v1/projects/p/resume":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, http.StatusOK, map[string]string{"status": "resumed", "message": body["user_input"]})
		case "GET /api/v1/projects/p/logs":
			_, _ = io.WriteString(w, `{"logs":["one",{"level":"error","message":"two"}]}`)
		case "GET /api/v1/health":
			writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "version": "2.0.0", "projects_count": 1})
		case "GET /api/v1/config":
			writeJSON(w, http.StatusOK, map[string]any{"model_provider": "sim", "features": map[string]bool{"web_search": true}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	list, err := c.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "calc", list[0].ProjectName)
	assert.False(t, list[0].CreatedAt.IsZero())

	p, err := c.GetProject(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "calc", p.DisplayName())

	del, err := c.DeleteProject(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "success", del.Status)

	rs, err := c.RestartProject(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "restarted", rs.Status)

	st, err := c.StartWorkflow(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "started", st.Status)

	res, err := c.ResumeProject(ctx, "p", "looks good")
	require.NoError(t, err)
	assert.Equal(t, "looks good", res.Message)

	logs, err := c.GetLogs(ctx, "p")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "error", logs[1].Level)

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 1, h.ProjectsCount)

	sc, err := c.Config(ctx)
	require.NoError(t, err)
	assert.True(t, sc.Features["web_search"])
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Project not found"})
	})

	_, err := c.GetProject(context.Background(), "missing")
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Project not found", apiErr.Detail())
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "status=404")
}

func TestBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}, WithToken("secret"))

	_, err := c.Health(context.Background())
	require.NoError(t, err)
}

func TestBreaker_OpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	cb := NewBreaker(config.BreakerConfig{Enabled: true, MaxRequests: 1, Interval: time.Minute, OpenTimeout: time.Hour, ConsecutiveFailures: 2})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, WithBreaker(cb))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.Health(ctx)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
	}

	_, err := c.Health(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load())
}

func TestBreaker_IgnoresClientErrors(t *testing.T) {
	cb := NewBreaker(config.BreakerConfig{Enabled: true, MaxRequests: 1, Interval: time.Minute, OpenTimeout: time.Hour, ConsecutiveFailures: 1})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}, WithBreaker(cb))

	for i := 0; i < 3; i++ {
		_, err := c.GetProject(context.Background(), "x")
		assert.True(t, IsNotFound(err))
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestNewBreaker_Disabled(t *testing.T) {
	assert.Nil(t, NewBreaker(config.BreakerConfig{}))
}
