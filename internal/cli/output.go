// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold).SprintFunc()
	successColor = color.New(color.FgGreen, color.Bold).SprintFunc()
	errorColor   = color.New(color.FgRed, color.Bold).SprintFunc()
	warnColor    = color.New(color.FgYellow, color.Bold).SprintFunc()
	infoColor    = color.New(color.FgBlue).SprintFunc()
	mutedColor   = color.New(color.FgHiBlack).SprintFunc()
	agentColor   = color.New(color.FgMagenta).SprintFunc()
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer, header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row(header))
	return tw
}

// levelColor picks a colour for a log level or event severity.
func levelColor(level string) func(a ...interface{}) string {
	switch strings.ToLower(level) {
	case "error", "critical":
		return errorColor
	case "warning", "warn":
		return warnColor
	case "success":
		return successColor
	case "debug":
		return mutedColor
	default:
		return infoColor
	}
}

func statusColor(status string) func(a ...interface{}) string {
	switch status {
	case "completed":
		return successColor
	case "error", "failed":
		return errorColor
	case "awaiting_review", "paused":
		return warnColor
	case "running", "resumed", "started":
		return infoColor
	default:
		return mutedColor
	}
}

func clockTime(t models.Timestamp) string {
	if t.IsZero() {
		return "--:--:--"
	}
	return t.Local().Format("15:04:05")
}

func dateTime(t models.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(time.DateTime)
}

// progress renders completed stages as "✓ ✓ ○ ○ ○".
func progress(steps []string) string {
	done := make(map[string]bool, len(steps))
	for _, s := range steps {
		done[strings.ToLower(s)] = true
	}
	marks := make([]string, 0, len(models.Stages))
	for _, st := range models.Stages {
		if done[string(st)] {
			marks = append(marks, "✓")
		} else {
			marks = append(marks, "○")
		}
	}
	return strings.Join(marks, " ")
}

func logLine(w io.Writer, ts models.Timestamp, level, agent, msg string) {
	paint := levelColor(level)
	if agent != "" {
		agent = agentColor("["+agent+"]") + " "
	}
	fmt.Fprintf(w, "%s %s %s%s\n", mutedColor(clockTime(ts)), paint(fmt.Sprintf("%-7s", strings.ToUpper(level))), agent, msg)
}
