// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package projectlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/layout"
)

// Lister loads the project listing. *api.Client implements it.
type Lister interface {
	ListProjects(ctx context.Context) ([]models.ProjectSummary, error)
}

// ProjectItem represents a project in the list
type ProjectItem struct {
	ID     string
	Name   string
	Status string
	Step   string
	Done   int
}

// FilterValue returns the value to filter against
func (p ProjectItem) FilterValue() string {
	return p.Name
}

// Title returns the project name
func (p ProjectItem) Title() string {
	return p.Name
}

// Description summarises the project's progress.
func (p ProjectItem) Description() string {
	parts := []string{p.Status, fmt.Sprintf("%d/%d stages", p.Done, len(models.Stages))}
	if s, ok := models.ParseStage(p.Step); ok {
		parts = append(parts, s.Title())
	}
	return strings.Join(parts, " · ")
}

// String returns a string representation of the project item
func (p ProjectItem) String() string {
	return fmt.Sprintf("%s: %s", p.Name, p.Description())
}

func itemFromSummary(s models.ProjectSummary) ProjectItem {
	name := s.ProjectName
	if name == "" {
		name = s.ProjectID
	}
	return ProjectItem{
		ID:     s.ProjectID,
		Name:   name,
		Status: s.Status,
		Step:   s.CurrentStep,
		Done:   len(s.StepsCompleted),
	}
}

type projectsLoadedMsg struct {
	projects []models.ProjectSummary
	err      error
}

// Model is the model for the project list screen.
type Model struct {
	list          list.Model
	backend       Lister
	ctx           context.Context
	count         int
	loading       bool
	statusMessage string
	width         int
	height        int
}

// NewModel creates a new project list model
func NewModel(ctx context.Context, backend Lister) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 50, 10)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Title = ""

	return Model{
		list:    l,
		backend: backend,
		ctx:     ctx,
		width:   50,
		height:  10,
	}
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) load() tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		projects, err := backend.ListProjects(ctx)
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

// GetLayoutInfo returns layout information for the project list screen
func (m Model) GetLayoutInfo() layout.LayoutInfo {
	status := fmt.Sprintf("Total: %d projects", m.count)
	if m.loading {
		status = "Loading projects…"
	}
	if m.statusMessage != "" {
		status = m.statusMessage
	}

	helpItems := []layout.HelpItem{
		{Key: "enter", Description: "open"},
		{Key: "n", Description: "new"},
		{Key: "r", Description: "refresh"},
		{Key: "q", Description: "quit"},
	}

	return layout.LayoutInfo{
		Title:       "AI-SOL Projects",
		Breadcrumbs: []string{"Projects"},
		Status:      status,
		HelpItems:   helpItems,
	}
}

// SetSize updates the model's dimensions and list size
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	dims := layout.GetContentArea(m.GetLayoutInfo(), width, height)
	m.list.SetWidth(dims.Width)
	m.list.SetHeight(dims.Height)
}
