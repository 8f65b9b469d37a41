// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package elapsedtimer renders how long a stage has been running, or how long
// it took once it ended.
package elapsedtimer

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Model is a start/end pair. A zero end means the span is still open.
type Model struct {
	start time.Time
	end   time.Time
	style lipgloss.Style
}

// New creates an empty timer
func New() Model {
	return Model{
		style: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Span sets the interval to display.
func (m Model) Span(start, end time.Time) Model {
	m.start = start
	m.end = end
	return m
}

// Running reports whether the span has started and not ended.
func (m Model) Running() bool {
	return !m.start.IsZero() && m.end.IsZero()
}

// Elapsed is the span length, measured up to now while it is open.
func (m Model) Elapsed(now time.Time) time.Duration {
	if m.start.IsZero() {
		return 0
	}
	end := m.end
	if end.IsZero() {
		end = now
	}
	if end.Before(m.start) {
		return 0
	}
	return end.Sub(m.start)
}

// View renders "⏱ 2m 34s", or nothing before the span starts.
func (m Model) View(now time.Time) string {
	if m.start.IsZero() {
		return ""
	}
	dim := m.style.Foreground(lipgloss.Color("239"))
	accent := m.style.Foreground(lipgloss.Color("75"))
	if !m.Running() {
		accent = m.style
	}
	return dim.Render("⏱") + " " + accent.Render(Format(m.Elapsed(now)))
}

// Format renders d as "1h 2m 3s", "2m 3s" or "3s".
func Format(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
