// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package projectlist

import (
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/layout"
)

// View renders the project list screen
func (m Model) View() string {
	body := m.list.View()
	if len(m.list.Items()) == 0 && !m.loading {
		body = layout.MutedStyle.Render("No projects yet. Press n to create one.")
	}
	return layout.RenderLayout(body, m.GetLayoutInfo(), m.width, m.height)
}
