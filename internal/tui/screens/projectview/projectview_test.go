// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package projectview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/dashboard"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/messages"
)

type fakeSession struct {
	mu       sync.Mutex
	state    dashboard.State
	sent     []string
	approved int
	selected []string
	toggled  []models.Stage
	saved    map[string]string
	saveErr  error
	stopped  bool
	fn       func(dashboard.State)
}

func newFakeSession() *fakeSession {
	st := dashboard.State{
		ProjectID: "p1",
		Stages:    models.NewStageMap(),
		Expanded:  map[models.Stage]bool{},
		Status:    "running",
		Connected: true,
	}
	return &fakeSession{state: st, saved: map[string]string{}}
}

func (f *fakeSession) ProjectID() string { return "p1" }

func (f *fakeSession) State() dashboard.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) Subscribe(fn func(dashboard.State)) func() {
	f.fn = fn
	return func() { f.fn = nil }
}

func (f *fakeSession) Start(context.Context) error { return nil }

func (f *fakeSession) Stop() { f.stopped = true }

func (f *fakeSession) SendMessage(_ context.Context, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeSession) Approve(context.Context) error {
	f.approved++
	return nil
}

func (f *fakeSession) SelectFile(path string) error {
	if _, ok := f.state.File(path); !ok {
		return dashboard.ErrUnknownFile
	}
	f.selected = append(f.selected, path)
	f.state.SelectedFile = path
	return nil
}

func (f *fakeSession) ToggleStageDetail(stage models.Stage) bool {
	f.toggled = append(f.toggled, stage)
	return true
}

func (f *fakeSession) LoadFile(_ context.Context, path string) (string, error) {
	file, _ := f.state.File(path)
	return file.Content(), nil
}

func (f *fakeSession) SaveFile(_ context.Context, path, content string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[path] = content
	return nil
}

func withFiles(st dashboard.State) dashboard.State {
	st.Files = []models.GeneratedFile{
		{Filename: "requirements.md", Path: "docs/requirements.md", FullContent: "# Requirements\n\nA todo app."},
		{Filename: "main.go", Path: "src/main.go", FullContent: "package main"},
	}
	st.SelectedFile = "docs/requirements.md"
	return st
}

func newTestModel(t *testing.T, sess *fakeSession) Model {
	t.Helper()
	m := NewModel(context.Background(), sess, WithMarkdownStyle("notty"))
	m.SetSize(120, 40)
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+a":
		return tea.KeyMsg{Type: tea.KeyCtrlA}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestProjectView_RendersState(t *testing.T) {
	sess := newFakeSession()
	sess.state = withFiles(sess.state)
	sess.state.Stages[models.StageRequirements].Status = models.StatusCompleted
	sess.state.Stages[models.StageArchitecture].Status = models.StatusRunning
	sess.state.Chat = []models.ChatMessage{{Role: models.RoleAI, Content: "Working on it"}}

	m := newTestModel(t, sess)
	m, cmd := update(t, m, StateMsg{State: sess.State()})
	assert.NotNil(t, cmd, "state updates re-arm the subscription")

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "AI-SOL")
	assert.Contains(t, view, "Files (2)")
	assert.Contains(t, view, "requirements.md")
	assert.Contains(t, view, "Working on it")
	assert.Contains(t, view, "● live")
	assert.NotContains(t, view, "review:")
}

func TestProjectView_ReviewBannerAndApprove(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess)

	m, cmd := update(t, m, keyMsg("ctrl+a"))
	assert.Nil(t, cmd)
	assert.Contains(t, ansi.Strip(m.View()), "nothing to approve")

	st := sess.State()
	st.AwaitingReview = true
	st.ReviewStage = "requirements"
	st.ReviewPrompt = "Check the requirements"
	m, _ = update(t, m, StateMsg{State: st})
	assert.Contains(t, ansi.Strip(m.View()), "Requirements review: Check the requirements")

	m, cmd = update(t, m, keyMsg("ctrl+a"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, approvedMsg{}, msg)
	assert.Equal(t, 1, sess.approved)

	_, _ = update(t, m, msg)
}

func TestProjectView_FocusCycleAndSend(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess)
	require.Equal(t, StagesPane, m.Focus())

	m, _ = update(t, m, keyMsg("shift+tab"))
	assert.Equal(t, ChatPane, m.Focus())
	assert.True(t, m.CapturesInput())

	for _, r := range "hello" {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := update(t, m, keyMsg("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, sentMsg{}, cmd())
	assert.Equal(t, []string{"hello"}, sess.sent)
	assert.Empty(t, m.chatInput.Value())

	// blank input sends nothing
	_, cmd = update(t, m, keyMsg("enter"))
	assert.Nil(t, cmd)

	m, _ = update(t, m, keyMsg("tab"))
	assert.Equal(t, StagesPane, m.Focus())
	assert.False(t, m.CapturesInput())
}

func TestProjectView_DuplicateSendNotice(t *testing.T) {
	m := newTestModel(t, newFakeSession())
	m, _ = update(t, m, sentMsg{err: dashboard.ErrDuplicateSend})
	assert.Contains(t, m.GetLayoutInfo().Status, "already sent")
}

func TestProjectView_StageToggle(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess)

	m, _ = update(t, m, keyMsg("down"))
	_, _ = update(t, m, keyMsg("enter"))
	assert.Equal(t, []models.Stage{models.Stages[1]}, sess.toggled)
}

func TestProjectView_SelectAndLoadFile(t *testing.T) {
	sess := newFakeSession()
	sess.state = withFiles(sess.state)
	m := newTestModel(t, sess)
	m, _ = update(t, m, StateMsg{State: sess.State()})

	m, _ = update(t, m, keyMsg("tab"))
	require.Equal(t, FilesPane, m.Focus())
	m, _ = update(t, m, keyMsg("down"))
	m, cmd := update(t, m, keyMsg("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"src/main.go"}, sess.selected)

	loaded := cmd()
	assert.Equal(t, fileLoadedMsg{path: "src/main.go", content: "package main"}, loaded)

	m, _ = update(t, m, StateMsg{State: sess.State()})
	assert.Contains(t, ansi.Strip(m.View()), "package main")
}

func TestProjectView_EditAndSave(t *testing.T) {
	sess := newFakeSession()
	sess.state = withFiles(sess.state)
	m := newTestModel(t, sess)
	m, _ = update(t, m, StateMsg{State: sess.State()})

	m, _ = update(t, m, keyMsg("tab"))
	m, _ = update(t, m, keyMsg("tab"))
	require.Equal(t, ViewerPane, m.Focus())

	m, _ = update(t, m, keyMsg("e"))
	require.True(t, m.Editing())
	assert.True(t, m.CapturesInput())

	// a failed save keeps the editor open
	sess.saveErr = errors.New("backend down")
	m, cmd := update(t, m, keyMsg("ctrl+s"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.True(t, m.Editing())

	sess.saveErr = nil
	m, cmd = update(t, m, keyMsg("ctrl+s"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.False(t, m.Editing())
	assert.Equal(t, "# Requirements\n\nA todo app.", sess.saved["docs/requirements.md"])
}

func TestProjectView_EscCancelsEditThenGoesBack(t *testing.T) {
	sess := newFakeSession()
	sess.state = withFiles(sess.state)
	m := newTestModel(t, sess)
	m, _ = update(t, m, StateMsg{State: sess.State()})
	m.setFocus(ViewerPane)

	m, _ = update(t, m, keyMsg("e"))
	require.True(t, m.Editing())
	m, cmd := update(t, m, keyMsg("esc"))
	assert.Nil(t, cmd)
	assert.False(t, m.Editing())

	_, cmd = update(t, m, keyMsg("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.GoBackMsg{}, cmd())
}

func TestProjectView_CloseStopsSession(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess)
	require.NotNil(t, sess.fn)

	m.Close()
	assert.True(t, sess.stopped)
	assert.Nil(t, sess.fn)
}

func TestProjectView_SubscriptionWakesWaiter(t *testing.T) {
	sess := newFakeSession()
	m := newTestModel(t, sess)

	sess.mu.Lock()
	sess.state.Status = "completed"
	sess.mu.Unlock()
	sess.fn(sess.State())
	sess.fn(sess.State()) // coalesced

	msg := m.waitForUpdate()()
	st, ok := msg.(StateMsg)
	require.True(t, ok)
	assert.Equal(t, "completed", st.State.Status)
}

func TestProjectView_StageTimers(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sess := newFakeSession()
	req := sess.state.Stages[models.StageRequirements]
	req.Status = models.StatusCompleted
	req.StartedAt, req.EndedAt = start, start.Add(45*time.Second)
	arch := sess.state.Stages[models.StageArchitecture]
	arch.Status = models.StatusRunning
	arch.StartedAt = start.Add(45 * time.Second)

	m := NewModel(context.Background(), sess, WithMarkdownStyle("notty"), WithNow(func() time.Time { return start.Add(135 * time.Second) }))
	m.SetSize(120, 40)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Requirements ⏱ 45s")
	assert.Contains(t, view, "Architecture ⏱ 1m 30s")
	assert.NotContains(t, view, "Developer ⏱")
}
