// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package projectview

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/dashboard"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/messages"
)

// Update handles messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		m.applyState(msg.State)
		return m, m.waitForUpdate()

	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case startedMsg:
		if msg.err != nil {
			m.notice = "start failed: " + msg.err.Error()
		}
		return m, nil

	case sentMsg:
		switch {
		case errors.Is(msg.err, dashboard.ErrDuplicateSend):
			m.notice = "already sent"
		case msg.err != nil && !errors.Is(msg.err, dashboard.ErrEmptyMessage):
			// the failure is also in the transcript
			log := logger.GetTUILogger()
			log.Debug().Err(msg.err).Msg("Chat send failed")
		}
		return m, nil

	case approvedMsg:
		if msg.err != nil {
			m.notice = "approve failed: " + msg.err.Error()
		}
		return m, nil

	case fileLoadedMsg:
		if msg.err != nil {
			m.notice = "could not load " + msg.path + ": " + msg.err.Error()
		}
		return m, nil

	case savedMsg:
		if msg.err == nil {
			m.editing = false
			m.editor.Blur()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applyState(st dashboard.State) {
	prevSelected := m.state.SelectedFile
	prevBanner := m.state.AwaitingReview
	m.state = st

	if st.SelectedFile != prevSelected {
		if i := fileIndex(st.Files, st.SelectedFile); i >= 0 {
			m.fileCursor = i
		}
	}
	m.fileCursor = clamp(m.fileCursor, 0, len(st.Files)-1)
	if st.AwaitingReview != prevBanner {
		m.notice = ""
	}

	m.resize()
	m.refreshViewer()
	m.refreshChat(false)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Quit) {
		return m, tea.Quit
	}

	if m.editing {
		switch {
		case key.Matches(msg, keys.Save):
			f, ok := m.state.Selected()
			if !ok {
				return m, nil
			}
			return m, m.save(f.Key(), m.editor.Value())
		case key.Matches(msg, keys.Cancel):
			m.editing = false
			m.editor.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Approve):
		if !m.state.AwaitingReview {
			m.notice = "nothing to approve"
			return m, nil
		}
		return m, m.approve()
	case key.Matches(msg, keys.NextPane):
		m.setFocus((m.focus + 1) % paneCount)
		return m, nil
	case key.Matches(msg, keys.PrevPane):
		m.setFocus((m.focus + paneCount - 1) % paneCount)
		return m, nil
	case key.Matches(msg, keys.Back):
		return m, func() tea.Msg { return messages.GoBackMsg{} }
	}

	switch m.focus {
	case ChatPane:
		return m.handleChatKey(msg)
	case StagesPane:
		switch {
		case key.Matches(msg, keys.Up):
			m.stageCursor = clamp(m.stageCursor-1, 0, len(models.Stages)-1)
		case key.Matches(msg, keys.Down):
			m.stageCursor = clamp(m.stageCursor+1, 0, len(models.Stages)-1)
		case key.Matches(msg, keys.Select):
			m.sess.ToggleStageDetail(models.Stages[m.stageCursor])
		}
	case FilesPane:
		switch {
		case key.Matches(msg, keys.Up):
			m.fileCursor = clamp(m.fileCursor-1, 0, len(m.state.Files)-1)
		case key.Matches(msg, keys.Down):
			m.fileCursor = clamp(m.fileCursor+1, 0, len(m.state.Files)-1)
		case key.Matches(msg, keys.Select):
			if m.fileCursor >= len(m.state.Files) {
				return m, nil
			}
			path := m.state.Files[m.fileCursor].Key()
			if err := m.sess.SelectFile(path); err != nil {
				m.notice = err.Error()
				return m, nil
			}
			return m, m.load(path)
		}
	case ViewerPane:
		if key.Matches(msg, keys.Edit) {
			f, ok := m.state.Selected()
			switch {
			case !ok:
				m.notice = "no file selected"
			case f.Content() == "":
				m.notice = "file is still loading"
			default:
				m.editing = true
				m.editor.SetValue(f.Content())
				return m, m.editor.Focus()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.viewer, cmd = m.viewer.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		text := strings.TrimSpace(m.chatInput.Value())
		if text == "" {
			return m, nil
		}
		m.chatInput.Reset()
		return m, m.send(text)
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m *Model) setFocus(p Pane) {
	m.focus = p
	if p == ChatPane {
		m.chatInput.Focus()
	} else {
		m.chatInput.Blur()
	}
}

func (m Model) send(text string) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg { return sentMsg{err: sess.SendMessage(ctx, text)} }
}

func (m Model) approve() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg { return approvedMsg{err: sess.Approve(ctx)} }
}

func (m Model) load(path string) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		content, err := sess.LoadFile(ctx, path)
		return fileLoadedMsg{path: path, content: content, err: err}
	}
}

func (m Model) save(path, content string) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg { return savedMsg{path: path, err: sess.SaveFile(ctx, path, content)} }
}

func fileIndex(files []models.GeneratedFile, key string) int {
	for i, f := range files {
		if f.Key() == key {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
