// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package layout

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestValidateSpace(t *testing.T) {
	assert.True(t, ValidateSpace(100, 40).Valid)
	assert.Contains(t, ValidateSpace(20, 40).Error, "too narrow")
	assert.Contains(t, ValidateSpace(100, 5).Error, "too short")
}

func TestRenderLayout_FitsTerminal(t *testing.T) {
	info := LayoutInfo{
		Title:       "AI-SOL",
		Breadcrumbs: []string{"Projects", "calc"},
		Status:      "running",
		Indicator:   "● live",
		HelpItems:   []HelpItem{{Key: "q", Description: "quit"}},
	}
	out := RenderLayout(strings.Repeat("line\n", 100), info, 80, 24)
	assert.Equal(t, 24, lipgloss.Height(out))
	assert.Contains(t, out, "Projects > calc")
	assert.Contains(t, out, "● live")
	assert.Contains(t, out, "quit")

	dims := GetContentArea(info, 80, 24)
	assert.True(t, dims.Valid)
	assert.Less(t, dims.Height, 24)

}

func TestRenderLayout_TooSmall(t *testing.T) {
	info := LayoutInfo{Title: "AI-SOL"}

	tiny := ansi.Strip(RenderLayout("x", info, 10, 5))
	assert.Contains(t, tiny, "Terminal Too Small")
	assert.Contains(t, tiny, "too narrow")
	assert.Contains(t, tiny, "Current: 10x5")

	short := ansi.Strip(RenderLayout("x", info, 100, 5))
	assert.Contains(t, short, "Terminal Too Small")
	assert.Contains(t, short, "too short")
	for _, line := range strings.Split(short, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 100)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel…", Truncate("hello", 4))
	assert.Equal(t, "", Truncate("hello", 0))
}
