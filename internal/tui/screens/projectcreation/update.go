// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package projectcreation

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/api"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/messages"
)

// Update handles messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if msg, ok := msg.(createdMsg); ok {
		return m.handleCreated(msg)
	}

	switch m.stage {
	case FormInput:
		if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
			return m, func() tea.Msg { return messages.GoToProjectListMsg{} }
		}

		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}
		switch m.form.State {
		case huh.StateCompleted:
			if m.values.AttachMockup {
				m.stage = MockupSelection
				return m, m.filePicker.Init()
			}
			return m.submit()
		case huh.StateAborted:
			return m, func() tea.Msg { return messages.GoToProjectListMsg{} }
		}
		return m, cmd

	case MockupSelection:
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "esc":
				m.stage = FormInput
				m.initForm()
				return m, m.form.Init()
			case "s":
				m.mockupPath = ""
				return m.submit()
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)
		if ok, path := m.filePicker.DidSelectFile(msg); ok {
			m.mockupPath = path
			return m.submit()
		}
		if ok, path := m.filePicker.DidSelectDisabledFile(msg); ok {
			m.statusMsg = filepath.Base(path) + " is not an image"
		}
		return m, cmd
	}

	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	m.stage = Submitting
	m.statusMsg = ""
	req := m.values.request()
	mockup := m.mockupPath
	backend, ctx := m.backend, m.ctx

	log := logger.GetTUILogger().With().Str("component", "projectcreation").Logger()
	log.Info().Str("name", req.Name).Str("type", req.Type).Bool("mockup", mockup != "").Msg("Creating project")

	return m, func() tea.Msg {
		if mockup != "" {
			f, err := os.Open(mockup)
			if err != nil {
				return createdMsg{err: fmt.Errorf("open mockup: %w", err)}
			}
			defer f.Close()
			req.Images = []api.Image{{Filename: filepath.Base(mockup), Data: f}}
		}
		resp, err := backend.CreateProject(ctx, req)
		if err != nil {
			return createdMsg{err: fmt.Errorf("create project: %w", err)}
		}
		if _, err := backend.StartWorkflow(ctx, resp.ProjectID); err != nil {
			return createdMsg{projectID: resp.ProjectID, err: fmt.Errorf("start workflow: %w", err)}
		}
		return createdMsg{projectID: resp.ProjectID}
	}
}

func (m Model) handleCreated(msg createdMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err == nil:
		id := msg.projectID
		return m, func() tea.Msg { return messages.GoToDashboardMsg{ProjectID: id} }
	case msg.projectID != "":
		// created but not started; the dashboard can still show it
		id := msg.projectID
		m.statusMsg = "Error: " + msg.err.Error()
		return m, func() tea.Msg { return messages.GoToDashboardMsg{ProjectID: id} }
	default:
		m.statusMsg = "Error: " + msg.err.Error()
		m.stage = FormInput
		m.initForm()
		return m, m.form.Init()
	}
}
