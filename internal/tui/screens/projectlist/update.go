// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package projectlist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/messages"
)

// Update handles messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if selectedItem := m.list.SelectedItem(); selectedItem != nil {
				if projectItem, ok := selectedItem.(ProjectItem); ok {
					return m, func() tea.Msg {
						return messages.GoToDashboardMsg{ProjectID: projectItem.ID}
					}
				}
			}
			return m, nil

		case "n":
			return m, func() tea.Msg {
				return messages.GoToProjectCreationMsg{}
			}

		case "r":
			m.loading = true
			m.statusMessage = ""
			return m, m.load()

		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case projectsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("Error: could not load projects: %v", msg.err)
			return m, nil
		}
		m.statusMessage = ""
		m.count = len(msg.projects)
		items := make([]list.Item, 0, len(msg.projects))
		for _, p := range msg.projects {
			items = append(items, itemFromSummary(p))
		}
		return m, m.list.SetItems(items)

	case messages.ErrorMsg:
		m.statusMessage = "Error: " + msg.Error()

	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}
