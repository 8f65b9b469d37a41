// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package layout

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpItem represents a single help entry
type HelpItem struct {
	Key         string
	Description string
}

// RenderHeader draws the title line (breadcrumbs on the left, indicator on
// the right), the optional status line and a divider.
func RenderHeader(info LayoutInfo, width int) string {
	left := TitleStyle.Render(info.Title)
	if len(info.Breadcrumbs) > 1 {
		left += "  " + BreadcrumbStyle.Render(strings.Join(info.Breadcrumbs, BreadcrumbSeparator.String()))
	}

	line := left
	if info.Indicator != "" {
		gap := width - lipgloss.Width(left) - lipgloss.Width(info.Indicator)
		if gap < 1 {
			gap = 1
		}
		line = left + strings.Repeat(" ", gap) + info.Indicator
	}

	parts := []string{line}
	if info.Status != "" {
		parts = append(parts, StatsStyle.Render(info.Status))
	}
	parts = append(parts, GetDivider(width))
	return strings.Join(parts, "\n")
}

// RenderFooter creates a footer with help items
func RenderFooter(items []HelpItem, width int) string {
	if len(items) == 0 {
		return ""
	}
	texts := make([]string, 0, len(items))
	for _, item := range items {
		texts = append(texts, fmt.Sprintf("[%s] %s", HelpKeyStyle.Render(item.Key), HelpTextStyle.Render(item.Description)))
	}
	return GetDivider(width) + "\n" + FooterStyle.Width(width).Render(strings.Join(texts, " • "))
}

// Truncate cuts s to width cells, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
