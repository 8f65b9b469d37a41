// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package messages

// Navigation messages for screen transitions within the TUI
type GoBackMsg struct{}

// GoToDashboardMsg opens the live dashboard of a project.
type GoToDashboardMsg struct {
	ProjectID string
}

type GoToProjectListMsg struct{}

type GoToProjectCreationMsg struct{}

// ErrorMsg carries a failed background command back to the screen that
// issued it.
type ErrorMsg struct {
	Context string
	Err     error
}

func (e ErrorMsg) Error() string {
	if e.Context == "" {
		return e.Err.Error()
	}
	return e.Context + ": " + e.Err.Error()
}
