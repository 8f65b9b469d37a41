// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package layout

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

var (
	PrimaryColor   = lipgloss.Color("#7C3AED")
	SecondaryColor = lipgloss.Color("#A78BFA")
	AccentColor    = lipgloss.Color("#10B981")
	TextColor      = lipgloss.Color("#F3F4F6")
	MutedColor     = lipgloss.Color("#9CA3AF")
	BorderColor    = lipgloss.Color("#4B5563")
	ErrorColor     = lipgloss.Color("#EF4444")
	WarningColor   = lipgloss.Color("#F59E0B")
	RunningColor   = lipgloss.Color("#60A5FA")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	BreadcrumbStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	BreadcrumbSeparator = lipgloss.NewStyle().
				Foreground(BorderColor).
				SetString(" > ")

	StatsStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	FooterStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(1).
			PaddingRight(1)

	HelpTextStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// PaneStyle frames one dashboard pane; FocusedPaneStyle marks the pane
	// receiving keys.
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	FocusedPaneStyle = PaneStyle.
				BorderForeground(SecondaryColor)

	PaneTitleStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#111827")).
			Background(WarningColor).
			Bold(true).
			Padding(0, 1)
)

// GetDivider returns a horizontal divider of the specified width
func GetDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(BorderColor).
		Render(strings.Repeat("─", width))
}

// StageStatusStyle colours a stage by status.
func StageStatusStyle(s models.StageStatus) lipgloss.Style {
	switch s {
	case models.StatusRunning:
		return lipgloss.NewStyle().Foreground(RunningColor).Bold(true)
	case models.StatusCompleted:
		return SuccessStyle
	case models.StatusFailed:
		return ErrorStyle
	default:
		return MutedStyle
	}
}

// StageIcon is the single-cell glyph for a stage status.
func StageIcon(s models.StageStatus) string {
	switch s {
	case models.StatusRunning:
		return "●"
	case models.StatusCompleted:
		return "✓"
	case models.StatusFailed:
		return "✗"
	default:
		return "○"
	}
}

// ConnectionIndicator renders the live channel state.
func ConnectionIndicator(connected bool, attempts int) string {
	if connected {
		return SuccessStyle.Render("● live")
	}
	if attempts > 0 {
		return WarningStyle.Render("◌ reconnecting")
	}
	return ErrorStyle.Render("○ offline")
}
