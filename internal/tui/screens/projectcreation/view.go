// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package projectcreation

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/layout"
)

// View renders the project creation screen
func (m Model) View() string {
	var content string

	switch m.stage {
	case FormInput:
		content = m.form.View()
	case MockupSelection:
		content = m.renderMockupSelection()
	case Submitting:
		content = layout.MutedStyle.Render(fmt.Sprintf("Creating %q and starting the workflow…", m.values.Name))
	}

	return layout.RenderLayout(lipgloss.NewStyle().Padding(1, 2).Render(content), m.GetLayoutInfo(), m.width, m.height)
}

func (m Model) renderMockupSelection() string {
	instructions := lipgloss.NewStyle().
		Foreground(layout.MutedColor).
		Margin(1, 0).
		Render("Pick a PNG, JPEG, GIF or WebP mockup for the requirements analyst, or press s to skip")

	currentPath := lipgloss.NewStyle().
		Bold(true).
		Foreground(layout.AccentColor).
		Margin(0, 0, 1, 0).
		Render(fmt.Sprintf("Current: %s", m.filePicker.CurrentDirectory))

	return lipgloss.JoinVertical(lipgloss.Left, instructions, currentPath, m.filePicker.View())
}
