// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package projectview is the live dashboard of one project: stage
// pipeline, generated files, chat and activity.
package projectview

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/dashboard"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/layout"
)

// Session is what the screen drives. *dashboard.Session implements it.
type Session interface {
	ProjectID() string
	State() dashboard.State
	Subscribe(fn func(dashboard.State)) (unsubscribe func())
	Start(ctx context.Context) error
	Stop()
	SendMessage(ctx context.Context, text string) error
	Approve(ctx context.Context) error
	SelectFile(path string) error
	ToggleStageDetail(stage models.Stage) bool
	LoadFile(ctx context.Context, path string) (string, error)
	SaveFile(ctx context.Context, path, content string) error
}

// Pane identifies the pane receiving keys.
type Pane int

const (
	StagesPane Pane = iota
	FilesPane
	ViewerPane
	ChatPane
	paneCount
)

// StateMsg delivers a fresh reducer snapshot.
type StateMsg struct {
	State dashboard.State
}

type (
	startedMsg    struct{ err error }
	sentMsg       struct{ err error }
	approvedMsg   struct{ err error }
	fileLoadedMsg struct {
		path    string
		content string
		err     error
	}
	savedMsg struct {
		path string
		err  error
	}
)

// Model is the project dashboard screen.
type Model struct {
	sess    Session
	ctx     context.Context
	updates chan struct{}
	unsub   func()

	state  dashboard.State
	focus  Pane
	notice string

	stageCursor int
	fileCursor  int

	viewer    viewport.Model
	viewerKey string // file key and content the viewer was last rendered for
	viewerSrc string
	viewerW   int
	editing   bool
	editor    textarea.Model

	chatView  viewport.Model
	chatInput textinput.Model
	chatLen   int
	chatW     int
	spinner   spinner.Model

	style  string // glamour style
	now    func() time.Time
	width  int
	height int
}

// Option tweaks a Model.
type Option func(*Model)

// WithMarkdownStyle selects the glamour style for markdown files.
func WithMarkdownStyle(style string) Option {
	return func(m *Model) { m.style = style }
}

// WithNow replaces the wall clock used for stage timers.
func WithNow(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// NewModel builds the screen and subscribes to sess. The session is not
// started until Init runs.
func NewModel(ctx context.Context, sess Session, opts ...Option) Model {
	ti := textinput.New()
	ti.Placeholder = "Message AI-SOL…"
	ti.Prompt = "› "
	ti.CharLimit = 4000

	ta := textarea.New()
	ta.ShowLineNumbers = true
	ta.CharLimit = 0

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		sess:      sess,
		ctx:       ctx,
		updates:   make(chan struct{}, 1),
		state:     sess.State(),
		viewer:    viewport.New(40, 10),
		editor:    ta,
		chatView:  viewport.New(40, 8),
		chatInput: ti,
		spinner:   sp,
		style:     "dark",
		now:       time.Now,
		width:     100,
		height:    30,
	}
	for _, o := range opts {
		o(&m)
	}

	updates := m.updates
	m.unsub = sess.Subscribe(func(dashboard.State) {
		// coalesce: one pending wake-up is enough, State is read on delivery
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	m.SetSize(m.width, m.height)
	return m
}

func (m Model) Init() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return tea.Batch(
		func() tea.Msg { return startedMsg{err: sess.Start(ctx)} },
		m.waitForUpdate(),
		m.spinner.Tick,
	)
}

// Close unsubscribes and stops the session. Call it when leaving the screen.
func (m Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
	m.sess.Stop()
}

// ProjectID is the project this screen shows.
func (m Model) ProjectID() string { return m.sess.ProjectID() }

// Focus returns the focused pane.
func (m Model) Focus() Pane { return m.focus }

// Editing reports whether the viewer is in edit mode.
func (m Model) Editing() bool { return m.editing }

// CapturesInput reports whether keys are going to a text field, so global
// shortcuts must not fire.
func (m Model) CapturesInput() bool {
	return m.editing || m.focus == ChatPane
}

func (m Model) waitForUpdate() tea.Cmd {
	updates, sess := m.updates, m.sess
	return func() tea.Msg {
		<-updates
		return StateMsg{State: sess.State()}
	}
}

// GetLayoutInfo returns layout information for the dashboard screen
func (m Model) GetLayoutInfo() layout.LayoutInfo {
	st := m.state
	status := st.Status
	if status == "" {
		status = "connecting"
	}
	done, total := st.Progress()
	line := statusLine(status, done, total, st.PollFailures, st.Restored && !st.Connected)
	if m.notice != "" {
		line += "  " + m.notice
	}

	var help []layout.HelpItem
	switch {
	case m.editing:
		help = helpItems(keys.Save, keys.Cancel)
	case m.focus == ChatPane:
		help = helpItems(keys.Send, keys.NextPane, keys.Approve, keys.Back)
	case m.focus == ViewerPane:
		help = helpItems(keys.Up, keys.Down, keys.Edit, keys.NextPane, keys.Approve, keys.Back)
	default:
		help = helpItems(keys.Up, keys.Down, keys.Select, keys.NextPane, keys.Approve, keys.Back, keys.Quit)
	}

	return layout.LayoutInfo{
		Title:       "AI-SOL",
		Breadcrumbs: []string{"Projects", st.ProjectID},
		Status:      line,
		Indicator:   layout.ConnectionIndicator(st.Connected, st.ReconnectAttempts),
		HelpItems:   help,
	}
}

// SetSize updates the model's dimensions and the size of every pane.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.resize()
	m.refreshViewer()
	m.refreshChat(false)
}

func (m *Model) resize() {
	g := m.geometry()
	m.viewer.Width = g.rightInner
	m.viewer.Height = g.viewerInner
	m.editor.SetWidth(g.rightInner)
	m.editor.SetHeight(g.viewerInner)
	m.chatView.Width = g.rightInner
	m.chatView.Height = g.chatInner
	m.chatInput.Width = max(g.rightInner-4, 1)
}
