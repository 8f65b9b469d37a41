// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package projectview

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/layout"
)

type keyMap struct {
	NextPane key.Binding
	PrevPane key.Binding
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Approve  key.Binding
	Edit     key.Binding
	Save     key.Binding
	Cancel   key.Binding
	Send     key.Binding
	Back     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	NextPane: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
	PrevPane: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev pane")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
	Approve:  key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "approve")),
	Edit:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Save:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Send:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "projects")),
	Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

func helpItems(bindings ...key.Binding) []layout.HelpItem {
	items := make([]layout.HelpItem, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		items = append(items, layout.HelpItem{Key: h.Key, Description: h.Desc})
	}
	return items
}
