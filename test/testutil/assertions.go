// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package testutil

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

// AssertNavigationMessage runs cmd and checks the message type.
func AssertNavigationMessage(t *testing.T, cmd tea.Cmd, expectedType interface{}) tea.Msg {
	t.Helper()
	if !assert.NotNil(t, cmd, "Expected a navigation command") {
		return nil
	}
	msg := ExecuteCommand(cmd)
	assert.IsType(t, expectedType, msg, "Navigation message type mismatch")
	return msg
}

// AssertQuitMessage verifies that a quit message was generated
func AssertQuitMessage(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	assert.NotNil(t, cmd, "Expected a command to be generated")
	msg := ExecuteCommand(cmd)
	assert.IsType(t, tea.QuitMsg{}, msg, "Expected quit message")
}

// AssertNoCommand verifies that no command was generated
func AssertNoCommand(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	assert.Nil(t, cmd, "Expected no command to be generated")
}

// AssertViewNotEmpty verifies that the view produces non-empty output
func AssertViewNotEmpty(t *testing.T, model tea.Model) {
	t.Helper()
	assert.NotEmpty(t, model.View(), "View should not be empty")
}
