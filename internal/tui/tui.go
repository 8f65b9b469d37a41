// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tui is the interactive terminal dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Run starts the dashboard and blocks until the user quits or ctx ends.
// The open project session is stopped before Run returns.
func Run(ctx context.Context, deps Deps) error {
	if deps.Backend == nil || deps.NewSession == nil {
		return errors.New("tui: backend and session factory are required")
	}

	p := tea.NewProgram(NewMainModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if m, ok := final.(MainModel); ok {
		m.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		reportFatal(os.Stderr, err)
		return err
	}
	return nil
}

// reportFatal prints a red error message once the screen is restored
func reportFatal(w io.Writer, err error) {
	errorStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("9")).
		Render

	fmt.Fprintf(w, "\n%s\n\n", errorStyle("DASHBOARD ERROR: "+err.Error()))
}
