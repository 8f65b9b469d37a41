// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package layout

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	// MinimumWidth is the minimum terminal width required
	MinimumWidth = 60
	// MinimumHeight is the minimum terminal height required (header + footer + some space)
	MinimumHeight = 16
)

// LayoutInfo describes the chrome around a screen.
type LayoutInfo struct {
	Title       string
	Breadcrumbs []string
	Status      string
	Indicator   string // right-aligned on the title line, e.g. connection state
	HelpItems   []HelpItem
}

// Dimensions represents the available space for content
type Dimensions struct {
	Width  int
	Height int
	Valid  bool
	Error  string
}

// ValidateSpace checks if the terminal has enough space to render properly
func ValidateSpace(width, height int) Dimensions {
	dims := Dimensions{Width: width, Height: height, Valid: true}
	switch {
	case width < MinimumWidth:
		dims.Valid = false
		dims.Error = fmt.Sprintf("Terminal too narrow (%d cols). Minimum: %d cols", width, MinimumWidth)
	case height < MinimumHeight:
		dims.Valid = false
		dims.Error = fmt.Sprintf("Terminal too short (%d lines). Minimum: %d lines", height, MinimumHeight)
	}
	return dims
}

// RenderLayout combines header, content, and footer into a complete layout
// Returns error view if terminal is too small
func RenderLayout(content string, info LayoutInfo, width, height int) string {
	dims := ValidateSpace(width, height)
	if !dims.Valid {
		return renderSpaceError(dims.Error, width, height)
	}

	header := RenderHeader(info, width)
	footer := RenderFooter(info.HelpItems, width)

	contentHeight := height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}

	// MaxHeight is the ceiling; Height alone only sets a minimum.
	body := lipgloss.NewStyle().
		Width(width).
		MaxHeight(contentHeight).
		Height(contentHeight).
		Render(content)

	if footer == "" {
		return lipgloss.JoinVertical(lipgloss.Left, header, body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// GetContentArea calculates the available width and height for content
func GetContentArea(info LayoutInfo, totalWidth, totalHeight int) Dimensions {
	dims := ValidateSpace(totalWidth, totalHeight)
	if !dims.Valid {
		return dims
	}

	used := lipgloss.Height(RenderHeader(info, totalWidth))
	if footer := RenderFooter(info.HelpItems, totalWidth); footer != "" {
		used += lipgloss.Height(footer)
	}

	dims.Height = totalHeight - used
	if dims.Height < 1 {
		dims.Height = 1
	}
	return dims
}

func renderSpaceError(message string, width, height int) string {
	lines := []string{
		"⚠ Terminal Too Small ⚠",
		"",
		message,
		"",
		fmt.Sprintf("Current: %dx%d", width, height),
		fmt.Sprintf("Minimum: %dx%d", MinimumWidth, MinimumHeight),
	}
	body := strings.Join(lines, "\n")
	style := lipgloss.NewStyle().
		Foreground(ErrorColor).
		Bold(true).
		Align(lipgloss.Center, lipgloss.Center).
		Height(height)
	// narrower than the text: let the terminal clip rather than wrap mid-word
	if lipgloss.Width(body) <= width {
		style = style.Width(width)
	}
	return style.Render(body)
}
