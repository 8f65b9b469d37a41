// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package projectcreation is the interactive new-project form.
package projectcreation

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/api"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/layout"
)

// Backend creates and starts projects. *api.Client implements it.
type Backend interface {
	CreateProject(ctx context.Context, req api.CreateProjectRequest) (api.CreateProjectResponse, error)
	StartWorkflow(ctx context.Context, projectID string) (api.ActionResponse, error)
}

// Stage represents the current stage of the form
type Stage int

const (
	FormInput Stage = iota
	MockupSelection
	Submitting
)

// ProjectTypes are the kinds of project the backend can generate.
var ProjectTypes = []string{"website", "ios", "android"}

var imageTypes = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// formValues lives on the heap so the huh fields keep pointing at it while
// the Model is copied through Update.
type formValues struct {
	Name           string
	Type           string
	Requirements   string
	GenerateTests  bool
	GenerateDevOps bool
	EnableGitHub   bool
	GitHubUsername string
	GitHubToken    string
	AttachMockup   bool
}

func (v *formValues) request() api.CreateProjectRequest {
	return api.CreateProjectRequest{
		Name:           strings.TrimSpace(v.Name),
		Type:           v.Type,
		Requirements:   strings.TrimSpace(v.Requirements),
		GenerateTests:  v.GenerateTests,
		GenerateDevOps: v.GenerateDevOps,
		EnableGitHub:   v.EnableGitHub,
		GitHubUsername: strings.TrimSpace(v.GitHubUsername),
		GitHubToken:    v.GitHubToken,
	}
}

type createdMsg struct {
	projectID string
	err       error
}

// Model is the model for the project creation screen
type Model struct {
	stage      Stage
	form       *huh.Form
	values     *formValues
	filePicker filepicker.Model
	mockupPath string
	statusMsg  string

	backend Backend
	ctx     context.Context
	width   int
	height  int
}

// NewModel creates a new project creation model
func NewModel(ctx context.Context, backend Backend) Model {
	fp := filepicker.New()
	fp.AllowedTypes = imageTypes
	fp.DirAllowed = false
	fp.FileAllowed = true
	if dir, err := os.UserHomeDir(); err == nil {
		fp.CurrentDirectory = dir
	} else {
		fp.CurrentDirectory = "."
	}

	m := Model{
		stage:      FormInput,
		values:     &formValues{Type: ProjectTypes[0], GenerateTests: true},
		filePicker: fp,
		backend:    backend,
		ctx:        ctx,
		width:      50,
		height:     10,
	}
	m.initForm()
	return m
}

// initForm builds the huh form over m.values.
func (m *Model) initForm() {
	v := m.values
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Project Name").
				Placeholder("todo-api").
				Value(&v.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),

			huh.NewSelect[string]().
				Key("type").
				Title("Project Type").
				Options(huh.NewOptions(ProjectTypes...)...).
				Value(&v.Type),

			huh.NewText().
				Key("requirements").
				Title("Requirements").
				Placeholder("Describe what should be built...").
				Value(&v.Requirements),
		),
		huh.NewGroup(
			huh.NewConfirm().Key("tests").Title("Generate tests?").Value(&v.GenerateTests),
			huh.NewConfirm().Key("devops").Title("Generate DevOps files?").Value(&v.GenerateDevOps),
			huh.NewConfirm().Key("mockup").Title("Attach a UI mockup image?").Value(&v.AttachMockup),
			huh.NewConfirm().Key("github").Title("Push the result to GitHub?").Value(&v.EnableGitHub),
		),
		huh.NewGroup(
			huh.NewInput().Key("github_username").Title("GitHub Username").Value(&v.GitHubUsername),
			huh.NewInput().Key("github_token").Title("GitHub Token").EchoMode(huh.EchoModePassword).Value(&v.GitHubToken),
		).WithHideFunc(func() bool { return !v.EnableGitHub }),
	).WithTheme(huh.ThemeCharm())
}

func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// GetLayoutInfo returns layout information for the project creation screen
func (m Model) GetLayoutInfo() layout.LayoutInfo {
	var status string
	var helpItems []layout.HelpItem

	switch m.stage {
	case FormInput:
		status = "Enter project details"
		helpItems = []layout.HelpItem{
			{Key: "tab", Description: "next field"},
			{Key: "enter", Description: "submit"},
			{Key: "esc", Description: "cancel"},
		}
	case MockupSelection:
		status = "Select a mockup image"
		helpItems = []layout.HelpItem{
			{Key: "↑/↓", Description: "navigate"},
			{Key: "enter", Description: "open/select"},
			{Key: "s", Description: "skip"},
			{Key: "esc", Description: "back"},
		}
	case Submitting:
		status = "Creating project…"
	}
	if m.statusMsg != "" {
		status = m.statusMsg
	}

	return layout.LayoutInfo{
		Title:       "Create New Project",
		Breadcrumbs: []string{"Projects", "New Project"},
		Status:      status,
		HelpItems:   helpItems,
	}
}

// SetSize updates the model's dimensions
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	dims := layout.GetContentArea(m.GetLayoutInfo(), width, height)
	m.filePicker.Height = max(dims.Height-4, 3)
	m.form = m.form.WithWidth(max(dims.Width-4, 20))
}
