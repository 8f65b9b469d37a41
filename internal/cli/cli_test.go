// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/api"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/config"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/protocol"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/server"
)

const testConfig = `
cache:
  driver: memory
log:
  level: ERROR
  output:
    - type: file
      enabled: false
    - type: console
      enabled: false
telemetry:
  exporter: none
`

type harness struct {
	t       *testing.T
	cfgPath string
	apiURL  string
	wsURL   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	color.NoColor = true

	srv, err := server.New(config.SimulatorConfig{}, nil, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		ts.Close()
	})

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	return &harness{
		t:       t,
		cfgPath: path,
		apiURL:  ts.URL + "/api/v1",
		wsURL:   "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
	}
}

// run executes one CLI invocation and returns its stdout.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand(&out, &errOut)
	root.SetArgs(append([]string{"--config", h.cfgPath, "--api-url", h.apiURL, "--ws-url", h.wsURL}, args...))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "aisol %s", strings.Join(args, " "))
	return out
}

func (h *harness) create(name string) string {
	h.t.Helper()
	var resp api.CreateProjectResponse
	require.NoError(h.t, json.Unmarshal([]byte(h.mustRun("--json", "create", "--name", name, "--requirements", "a todo app")), &resp))
	require.NotEmpty(h.t, resp.ProjectID)
	return resp.ProjectID
}

func TestCreateAndList(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("create", "--name", "todo-api", "--requirements", "A REST API")
	assert.Contains(t, out, "Created")
	assert.Contains(t, out, "(created)")
	assert.Contains(t, out, "aisol start")

	out = h.mustRun("projects")
	assert.Contains(t, out, "todo-api")
	assert.Contains(t, out, "created")
	assert.Contains(t, out, "○ ○ ○ ○ ○")

	var listed []models.ProjectSummary
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("--json", "ls")), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "todo-api", listed[0].ProjectName)
}

func TestCreateRequiresName(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("create", "--requirements", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestCreateGitHubNeedsUser(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("create", "--name", "x", "--github")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--github-user")
}

func TestEmptyProjectList(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("projects")
	assert.Contains(t, out, "No projects found.")
}

func TestStatusOfNewProject(t *testing.T) {
	h := newHarness(t)
	id := h.create("blog")

	out := h.mustRun("status", id)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "created")
	for _, st := range models.Stages {
		assert.Contains(t, out, st.Title())
	}
}

func TestChatBeforeStart(t *testing.T) {
	h := newHarness(t)
	id := h.create("blog")

	out := h.mustRun("chat", id, "what", "next?")
	assert.Contains(t, out, "AI-SOL:")
	assert.Contains(t, out, "Start the workflow")

	out = h.mustRun("approve", id)
	assert.Contains(t, out, "nothing waiting for approval")
}

func TestSaveCatAndList(t *testing.T) {
	h := newHarness(t)
	id := h.create("notes")

	out := h.mustRun("files", id)
	assert.Contains(t, out, "No files generated yet.")

	src := filepath.Join(t.TempDir(), "readme.md")
	require.NoError(t, os.WriteFile(src, []byte("# Notes\n"), 0o600))
	out = h.mustRun("save", id, "docs/README.md", "--from", src)
	assert.Contains(t, out, "Saved docs/README.md (8 bytes)")

	assert.Equal(t, "docs/README.md\n", h.mustRun("files", id))
	assert.Equal(t, "# Notes\n", h.mustRun("cat", id, "docs/README.md"))
}

func TestSaveFromStdin(t *testing.T) {
	h := newHarness(t)
	id := h.create("notes")

	var out bytes.Buffer
	root := NewRootCommand(&out, &bytes.Buffer{})
	root.SetIn(strings.NewReader("package main\n"))
	root.SetArgs([]string{"--config", h.cfgPath, "--api-url", h.apiURL, "save", id, "main.go"})
	require.NoError(t, root.Execute())

	assert.Equal(t, "package main\n", h.mustRun("cat", id, "main.go"))
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	id := h.create("scratch")

	_, err := h.run("delete", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	out := h.mustRun("delete", id, "--yes")
	assert.Contains(t, out, "Project deleted")

	_, err = h.run("status", id)
	require.Error(t, err)
}

func TestResumeWhenNotPaused(t *testing.T) {
	h := newHarness(t)
	id := h.create("idle")

	_, err := h.run("resume", id)
	require.Error(t, err)
}

func TestHealthAndConfig(t *testing.T) {
	h := newHarness(t)
	h.create("one")

	out := h.mustRun("health")
	assert.Contains(t, out, "healthy")
	assert.Contains(t, out, "1 projects")

	out = h.mustRun("config")
	assert.Contains(t, out, "simulator / scripted")
	assert.Regexp(t, `code_analysis\s+on`, out)
	assert.Regexp(t, `web_search\s+off`, out)
	assert.Less(t, strings.Index(out, "code_analysis"), strings.Index(out, "web_search"))
}

func TestLogsEmpty(t *testing.T) {
	h := newHarness(t)
	id := h.create("quiet")
	assert.Contains(t, h.mustRun("logs", id), "No log entries.")
}

func TestBadConfigFails(t *testing.T) {
	color.NoColor = true
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  driver: redis\n"), 0o600))

	root := NewRootCommand(&bytes.Buffer{}, &bytes.Buffer{})
	root.SetArgs([]string{"--config", path, "health"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.driver")
}

func TestTailPrinter(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	p := &tailPrinter{w: &buf}
	ts := models.At(time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local))
	pct := 40.0

	p.event(models.WorkflowEvent{EventType: models.EventStageStarted, Stage: "qa", Message: "QA started", Severity: models.SeverityInfo, ProgressPercentage: &pct, Timestamp: ts})
	p.envelope(protocol.LogEnvelope{Level: "info", Agent: "qa", Message: "running tests", Timestamp: ts})
	p.envelope(protocol.AwaitingReviewEnvelope{Stage: "qa", Prompt: "Check the tests", Files: []string{"tests/test_app.py"}, Timestamp: ts})
	p.envelope(protocol.ConnectionStatusEnvelope{Connected: false, ReconnectAttempts: 2, Timestamp: ts})
	p.envelope(protocol.WorkflowEventEnvelope{Event: models.WorkflowEvent{Message: "printed by the router"}})

	out := buf.String()
	assert.Contains(t, out, "03:04:05 stage_started  40% QA QA started")
	assert.Contains(t, out, "[qa] running tests")
	assert.Contains(t, out, "tests/test_app.py")
	assert.Contains(t, out, "approve with: aisol approve")
	assert.Contains(t, out, "disconnected (attempt 2)")
	assert.NotContains(t, out, "printed by the router")
}

func TestTailPrinterFilters(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	p := &tailPrinter{w: &buf, quiet: true, only: map[models.EventType]bool{models.EventStageCompleted: true, models.EventAgentThinking: true}}

	p.event(models.WorkflowEvent{EventType: models.EventStageStarted, Message: "filtered out"})
	p.event(models.WorkflowEvent{EventType: models.EventAgentThinking, Message: "thinking hard"})
	p.event(models.WorkflowEvent{EventType: models.EventStageCompleted, Message: "kept"})
	p.envelope(protocol.LogEnvelope{Level: "debug", Message: "noise"})

	out := buf.String()
	assert.Contains(t, out, "kept")
	assert.NotContains(t, out, "filtered out")
	assert.NotContains(t, out, "thinking hard")
	assert.NotContains(t, out, "noise")
}
