// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package activityfeed

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/dashboard"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/layout"
)

// Model renders the tail of the dashboard log feed.
type Model struct {
	lines    []dashboard.LogLine
	maxItems int
	width    int
}

// New creates a new activity feed model
func New() Model {
	return Model{maxItems: 10, width: 80}
}

// SetLines replaces the feed content.
func (m Model) SetLines(lines []dashboard.LogLine) Model {
	m.lines = lines
	return m
}

// SetMaxItems sets the maximum number of items to display
func (m Model) SetMaxItems(n int) Model {
	if n < 1 {
		n = 1
	}
	m.maxItems = n
	return m
}

// SetWidth bounds each rendered line.
func (m Model) SetWidth(w int) Model {
	m.width = w
	return m
}

// View renders the newest maxItems lines, oldest first.
func (m Model) View() string {
	if len(m.lines) == 0 {
		return layout.MutedStyle.Render("No activity yet")
	}

	start := 0
	if len(m.lines) > m.maxItems {
		start = len(m.lines) - m.maxItems
	}

	out := make([]string, 0, len(m.lines)-start)
	for _, l := range m.lines[start:] {
		out = append(out, m.render(l))
	}
	return strings.Join(out, "\n")
}

func (m Model) render(l dashboard.LogLine) string {
	icon, style := levelStyle(l.Level)
	ts := ""
	if !l.Timestamp.IsZero() {
		ts = layout.MutedStyle.Render(l.Timestamp.Format("15:04:05")) + " "
	}
	agent := ""
	if l.Agent != "" {
		agent = lipgloss.NewStyle().Foreground(layout.SecondaryColor).Render(l.Agent) + " "
	}
	prefix := fmt.Sprintf("%s %s%s", style.Render(icon), ts, agent)
	room := m.width - lipgloss.Width(prefix)
	return prefix + style.Render(layout.Truncate(cleanString(l.Message), room))
}

func levelStyle(level string) (string, lipgloss.Style) {
	switch strings.ToLower(level) {
	case "success":
		return "✓", layout.SuccessStyle
	case "warning", "warn":
		return "!", lipgloss.NewStyle().Foreground(layout.WarningColor)
	case "error", "critical":
		return "✗", lipgloss.NewStyle().Foreground(layout.ErrorColor)
	case "debug":
		return "◦", layout.MutedStyle
	default:
		return "▸", lipgloss.NewStyle().Foreground(layout.TextColor)
	}
}

func cleanString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
