// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package tui

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/layout"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/messages"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/screens/projectcreation"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/screens/projectlist"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/screens/projectview"
)

// ScreenType represents the current active screen
type ScreenType int

const (
	ProjectListScreen ScreenType = iota
	ProjectCreationScreen
	DashboardScreen
)

// Backend is the REST surface the screens use. *api.Client implements it.
type Backend interface {
	projectlist.Lister
	projectcreation.Backend
}

// SessionFactory builds the live session of one project.
type SessionFactory func(projectID string) projectview.Session

// Deps are what the TUI needs from the process.
type Deps struct {
	Backend       Backend
	NewSession    SessionFactory
	MarkdownStyle string
	// Project, when set, opens its dashboard directly.
	Project string
}

// crashState is shared by every copy of MainModel so a panic recorded in
// View, which cannot return a new model, is seen by the next Update.
type crashState struct {
	reason string
	stack  string
}

type MainModel struct {
	currentScreen ScreenType
	screenHistory []ScreenType

	projectList     projectlist.Model
	projectCreation projectcreation.Model
	dashboard       projectview.Model
	hasDashboard    bool

	deps  Deps
	ctx   context.Context
	crash *crashState

	width, height int
}

// NewMainModel creates a new MainModel with the project list as the initial screen
func NewMainModel(ctx context.Context, deps Deps) MainModel {
	m := MainModel{
		currentScreen: ProjectListScreen,
		projectList:   projectlist.NewModel(ctx, deps.Backend),
		deps:          deps,
		ctx:           ctx,
		crash:         &crashState{},
		width:         100,
		height:        30,
	}
	if deps.Project != "" {
		m.openDashboard(deps.Project)
	}
	return m
}

func (m MainModel) Init() tea.Cmd {
	if m.currentScreen == DashboardScreen {
		return m.dashboard.Init()
	}
	return m.projectList.Init()
}

// Close stops the open dashboard session, if any.
func (m MainModel) Close() {
	if m.hasDashboard {
		m.dashboard.Close()
	}
}

// Crashed reports whether the recovery panel is showing.
func (m MainModel) Crashed() bool {
	return m.crash.reason != ""
}

func (m MainModel) Screen() ScreenType {
	return m.currentScreen
}

func (m *MainModel) openDashboard(projectID string) {
	m.closeDashboard()
	opts := []projectview.Option{}
	if m.deps.MarkdownStyle != "" {
		opts = append(opts, projectview.WithMarkdownStyle(m.deps.MarkdownStyle))
	}
	m.dashboard = projectview.NewModel(m.ctx, m.deps.NewSession(projectID), opts...)
	m.dashboard.SetSize(m.width, m.height)
	m.hasDashboard = true
	m.currentScreen = DashboardScreen
}

func (m *MainModel) closeDashboard() {
	if m.hasDashboard {
		m.dashboard.Close()
		m.hasDashboard = false
	}
}

// setSize updates the size for the current screen
func (m *MainModel) setSize(width, height int) {
	m.width = width
	m.height = height
	switch m.currentScreen {
	case ProjectListScreen:
		m.projectList.SetSize(width, height)
	case ProjectCreationScreen:
		m.projectCreation.SetSize(width, height)
	case DashboardScreen:
		m.dashboard.SetSize(width, height)
	}
}

func (m MainModel) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			m.recordCrash(r, "update")
			model, cmd = m, nil
		}
	}()

	if windowSize, ok := msg.(tea.WindowSizeMsg); ok {
		m.setSize(windowSize.Width, windowSize.Height)
	}

	if m.Crashed() {
		return m.updateCrashed(msg)
	}

	// Navigation messages return early to avoid screen delegation
	switch msg := msg.(type) {
	case messages.GoToDashboardMsg:
		if m.currentScreen != DashboardScreen {
			m.screenHistory = append(m.screenHistory, ProjectListScreen)
		}
		m.openDashboard(msg.ProjectID)
		return m, m.dashboard.Init()

	case messages.GoToProjectCreationMsg:
		m.screenHistory = append(m.screenHistory, m.currentScreen)
		m.projectCreation = projectcreation.NewModel(m.ctx, m.deps.Backend)
		m.projectCreation.SetSize(m.width, m.height)
		m.currentScreen = ProjectCreationScreen
		return m, m.projectCreation.Init()

	case messages.GoBackMsg:
		if m.currentScreen == DashboardScreen {
			m.closeDashboard()
		}
		next := ProjectListScreen
		if len(m.screenHistory) > 0 {
			next = m.screenHistory[len(m.screenHistory)-1]
			m.screenHistory = m.screenHistory[:len(m.screenHistory)-1]
		}
		m.currentScreen = next
		m.setSize(m.width, m.height)
		if next == ProjectListScreen {
			return m, m.projectList.Init()
		}
		return m, nil

	case messages.GoToProjectListMsg:
		m.closeDashboard()
		m.currentScreen = ProjectListScreen
		m.screenHistory = nil
		m.projectList.SetSize(m.width, m.height)
		return m, m.projectList.Init()
	}

	var next tea.Model
	switch m.currentScreen {
	case ProjectListScreen:
		next, cmd = m.projectList.Update(msg)
		m.projectList = next.(projectlist.Model)
	case ProjectCreationScreen:
		next, cmd = m.projectCreation.Update(msg)
		m.projectCreation = next.(projectcreation.Model)
	case DashboardScreen:
		next, cmd = m.dashboard.Update(msg)
		m.dashboard = next.(projectview.Model)
	}
	return m, cmd
}

func (m MainModel) updateCrashed(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		*m.crash = crashState{}
		if m.currentScreen == DashboardScreen && m.hasDashboard {
			m.openDashboard(m.dashboard.ProjectID())
			return m, m.dashboard.Init()
		}
		m.currentScreen = ProjectListScreen
		m.screenHistory = nil
		m.projectList = projectlist.NewModel(m.ctx, m.deps.Backend)
		m.projectList.SetSize(m.width, m.height)
		return m, m.projectList.Init()
	}
	return m, nil
}

func (m MainModel) recordCrash(r any, where string) {
	m.crash.reason = fmt.Sprint(r)
	m.crash.stack = string(debug.Stack())
	log := logger.GetTUILogger()
	log.Error().
		Str("where", where).
		Str("screen", screenName(m.currentScreen)).
		Str("panic", m.crash.reason).
		Str("stack", m.crash.stack).
		Msg("Recovered from panic in the dashboard")
}

func (m MainModel) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			m.recordCrash(r, "view")
			out = m.renderCrash()
		}
	}()

	if m.Crashed() {
		return m.renderCrash()
	}
	switch m.currentScreen {
	case ProjectListScreen:
		return m.projectList.View()
	case ProjectCreationScreen:
		return m.projectCreation.View()
	case DashboardScreen:
		return m.dashboard.View()
	default:
		return "Unknown screen"
	}
}

// renderCrash is the diagnostic panel shown instead of a broken screen.
func (m MainModel) renderCrash() string {
	stack := strings.Split(m.crash.stack, "\n")
	if len(stack) > 12 {
		stack = stack[:12]
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		layout.ErrorStyle.Render("Something went wrong while drawing the "+screenName(m.currentScreen)+" screen."),
		"",
		layout.WarningStyle.Render(m.crash.reason),
		"",
		layout.MutedStyle.Render(strings.Join(stack, "\n")),
	)
	info := layout.LayoutInfo{
		Title:  "AI-SOL",
		Status: "The workflow keeps running on the backend",
		HelpItems: []layout.HelpItem{
			{Key: "r", Description: "reload"},
			{Key: "q", Description: "quit"},
		},
	}
	return layout.RenderLayout(layout.PaneStyle.Render(body), info, max(m.width, layout.MinimumWidth), max(m.height, layout.MinimumHeight))
}

// screenName returns a string representation of the screen type for logging
func screenName(s ScreenType) string {
	switch s {
	case ProjectListScreen:
		return "project list"
	case ProjectCreationScreen:
		return "project creation"
	case DashboardScreen:
		return "dashboard"
	default:
		return "unknown"
	}
}
