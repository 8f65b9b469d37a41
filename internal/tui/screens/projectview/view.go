// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package projectview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/components/activityfeed"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/components/elapsedtimer"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/components/stepprogress"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/tui/layout"
)

const maxStageEvents = 4

type geometry struct {
	leftW       int
	rightW      int
	contentH    int
	bannerH     int
	stagesH     int
	filesH      int
	feedH       int
	viewerH     int
	chatH       int
	leftInner   int
	rightInner  int
	viewerInner int
	chatInner   int
}

func (m Model) geometry() geometry {
	dims := layout.GetContentArea(m.GetLayoutInfo(), m.width, m.height)
	g := geometry{contentH: dims.Height}
	if m.state.AwaitingReview {
		g.bannerH = 1
	}
	h := g.contentH - g.bannerH

	g.leftW = m.width * 35 / 100
	if g.leftW < 28 {
		g.leftW = 28
	}
	g.rightW = m.width - g.leftW

	// progress bar + one line per stage + expanded detail, plus borders and title
	g.stagesH = len(models.Stages) + 4
	for _, st := range models.Stages {
		if m.state.Expanded[st] {
			g.stagesH += 1 + min(len(m.state.Stage(st).Events), maxStageEvents)
		}
	}
	g.stagesH = min(g.stagesH, h/2)
	rest := h - g.stagesH
	g.filesH = rest / 2
	g.feedH = rest - g.filesH

	g.viewerH = h * 6 / 10
	g.chatH = h - g.viewerH

	g.leftInner = max(g.leftW-4, 1)
	g.rightInner = max(g.rightW-4, 1)
	g.viewerInner = max(g.viewerH-3, 1)
	g.chatInner = max(g.chatH-4, 1)
	return g
}

// View renders the dashboard screen
func (m Model) View() string {
	g := m.geometry()

	left := lipgloss.JoinVertical(lipgloss.Left,
		pane("Stages", m.renderStages(g), g.leftW, g.stagesH, m.focus == StagesPane),
		pane(fmt.Sprintf("Files (%d)", len(m.state.Files)), m.renderFiles(g), g.leftW, g.filesH, m.focus == FilesPane),
		pane("Activity", m.renderFeed(g), g.leftW, g.feedH, false),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		pane(m.viewerTitle(), m.renderViewer(), g.rightW, g.viewerH, m.focus == ViewerPane),
		pane(m.chatTitle(), m.chatView.View()+"\n"+m.chatInput.View(), g.rightW, g.chatH, m.focus == ChatPane),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	if g.bannerH > 0 {
		body = lipgloss.JoinVertical(lipgloss.Left, m.renderBanner(), body)
	}
	return layout.RenderLayout(body, m.GetLayoutInfo(), m.width, m.height)
}

func pane(title, body string, w, h int, focused bool) string {
	style := layout.PaneStyle
	if focused {
		style = layout.FocusedPaneStyle
	}
	innerH := max(h-2, 1)
	content := layout.PaneTitleStyle.Render(layout.Truncate(title, max(w-4, 1))) + "\n" + clampLines(body, innerH-1)
	return style.Width(max(w-2, 1)).Height(innerH).MaxHeight(h).Render(content)
}

func clampLines(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

func statusLine(status string, done, total, pollFailures int, cached bool) string {
	parts := []string{fmt.Sprintf("%s · %d/%d stages", status, done, total)}
	if pollFailures > 0 {
		parts = append(parts, layout.WarningStyle.Render(fmt.Sprintf("stale: %d failed polls", pollFailures)))
	}
	if cached {
		parts = append(parts, layout.MutedStyle.Render("(cached)"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderBanner() string {
	stage := m.state.ReviewStage
	if s, ok := models.ParseStage(stage); ok {
		stage = s.Title()
	}
	prompt := m.state.ReviewPrompt
	if prompt == "" {
		prompt = "Review the generated files"
	}
	text := fmt.Sprintf("⏸ %s review: %s  [ctrl+a] approve", stage, prompt)
	return layout.BannerStyle.Render(layout.Truncate(text, max(m.width-2, 1)))
}

func (m Model) renderStages(g geometry) string {
	progress := stepprogress.New().
		SetWidth(g.leftInner - 18).
		SetSteps(stepprogress.FromStages(m.state.Stages))

	lines := []string{progress.View()}
	now := m.now()
	for i, st := range models.Stages {
		info := m.state.Stage(st)
		cursor := "  "
		if m.focus == StagesPane && i == m.stageCursor {
			cursor = layout.HelpKeyStyle.Render("› ")
		}
		line := layout.StageStatusStyle(info.Status).Render(layout.StageIcon(info.Status) + " " + st.Title())
		if t := elapsedtimer.New().Span(info.StartedAt, info.EndedAt).View(now); t != "" {
			line += " " + t
		}
		if info.Message != "" {
			line += layout.MutedStyle.Render(" · " + info.Message)
		}
		lines = append(lines, layout.Truncate(cursor+line, g.leftInner))

		if !m.state.Expanded[st] {
			continue
		}
		detail := "    " + string(info.Status)
		if info.Agent != "" {
			detail += " · " + info.Agent
		}
		if !info.StartedAt.IsZero() {
			detail += " · started " + info.StartedAt.Format("15:04:05")
		}
		if !info.EndedAt.IsZero() {
			detail += " · ended " + info.EndedAt.Format("15:04:05")
		}
		lines = append(lines, layout.MutedStyle.Render(layout.Truncate(detail, g.leftInner)))
		events := info.Events
		if len(events) > maxStageEvents {
			events = events[len(events)-maxStageEvents:]
		}
		for _, e := range events {
			lines = append(lines, layout.MutedStyle.Render(layout.Truncate("    ◦ "+string(e.EventType)+" "+e.Message, g.leftInner)))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFiles(g geometry) string {
	if len(m.state.Files) == 0 {
		return layout.MutedStyle.Render("No files yet")
	}
	// keep the cursor visible
	visible := max(g.filesH-3, 1)
	start := 0
	if m.fileCursor >= visible {
		start = m.fileCursor - visible + 1
	}

	var lines []string
	for i := start; i < len(m.state.Files) && i < start+visible; i++ {
		f := m.state.Files[i]
		cursor := "  "
		if m.focus == FilesPane && i == m.fileCursor {
			cursor = layout.HelpKeyStyle.Render("› ")
		}
		name := f.DisplayName()
		if f.Key() == m.state.SelectedFile {
			name = layout.SuccessStyle.Render("● " + name)
		} else {
			name = "  " + name
		}
		line := cursor + name
		if dir := strings.TrimSuffix(f.Key(), f.DisplayName()); dir != "" {
			line += layout.MutedStyle.Render(" " + dir)
		}
		lines = append(lines, layout.Truncate(line, g.leftInner))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFeed(g geometry) string {
	return activityfeed.New().
		SetWidth(g.leftInner).
		SetMaxItems(g.feedH - 3).
		SetLines(m.state.Logs).
		View()
}

func (m Model) viewerTitle() string {
	f, ok := m.state.Selected()
	if !ok {
		return "Viewer"
	}
	title := f.Key()
	if m.editing {
		title += " [editing]"
	}
	if m.state.SaveMessage != "" {
		title += "  " + m.state.SaveMessage
	}
	return title
}

func (m Model) renderViewer() string {
	if m.editing {
		return m.editor.View()
	}
	if _, ok := m.state.Selected(); !ok {
		return layout.MutedStyle.Render("Select a file to preview it")
	}
	return m.viewer.View()
}

func (m Model) chatTitle() string {
	title := fmt.Sprintf("Chat (%d)", len(m.state.Chat))
	if m.state.Loading {
		title += " " + m.spinner.View() + " thinking"
	}
	return title
}

// refreshViewer re-renders the selected file when it or the width changed.
func (m *Model) refreshViewer() {
	f, ok := m.state.Selected()
	if !ok {
		m.viewerKey, m.viewerSrc = "", ""
		m.viewer.SetContent("")
		return
	}
	content := f.Content()
	if f.Key() == m.viewerKey && content == m.viewerSrc && m.viewerW == m.viewer.Width {
		return
	}
	if f.Key() != m.viewerKey {
		m.viewer.GotoTop()
	}
	m.viewerKey, m.viewerSrc, m.viewerW = f.Key(), content, m.viewer.Width

	switch {
	case content == "":
		m.viewer.SetContent(layout.MutedStyle.Render("Loading…"))
	case f.IsMarkdown():
		m.viewer.SetContent(renderMarkdown(content, m.viewer.Width, m.style))
	default:
		m.viewer.SetContent(content)
	}
}

// renderMarkdown falls back to the raw source when glamour fails.
func renderMarkdown(src string, width int, style string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(width-2, 10)),
	)
	if err != nil {
		return src
	}
	out, err := r.Render(src)
	if err != nil {
		return src
	}
	return strings.TrimRight(out, "\n")
}

// refreshChat rebuilds the transcript when it grew or the pane was resized, keeping it scrolled to
// the newest message.
func (m *Model) refreshChat(force bool) {
	if !force && len(m.state.Chat) == m.chatLen && m.chatW == m.chatView.Width {
		return
	}
	m.chatLen, m.chatW = len(m.state.Chat), m.chatView.Width
	w := max(m.chatView.Width, 10)

	var b strings.Builder
	for i, msg := range m.state.Chat {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderChatMessage(msg, w))
	}
	m.chatView.SetContent(b.String())
	m.chatView.GotoBottom()
}

func renderChatMessage(msg models.ChatMessage, width int) string {
	who := lipgloss.NewStyle().Foreground(layout.SecondaryColor).Bold(true).Render("AI-SOL")
	body := lipgloss.NewStyle().Foreground(layout.TextColor)
	if msg.Role == models.RoleUser {
		who = lipgloss.NewStyle().Foreground(layout.AccentColor).Bold(true).Render("You")
	}
	if msg.Action == "error" {
		body = lipgloss.NewStyle().Foreground(layout.ErrorColor)
	}
	header := who
	if !msg.Timestamp.IsZero() {
		header += layout.MutedStyle.Render(" " + msg.Timestamp.Format("15:04"))
	}
	out := header + "\n" + body.Width(width).Render(msg.Content)
	if len(msg.Buttons) > 0 {
		labels := make([]string, 0, len(msg.Buttons))
		for _, btn := range msg.Buttons {
			label := "[" + btn.Label + "]"
			if btn.Action == "approve" {
				label += " ctrl+a"
			}
			labels = append(labels, layout.HelpKeyStyle.Render(label))
		}
		out += "\n" + strings.Join(labels, " ")
	}
	return out
}
