// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/events"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/protocol"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/transport"
)

func (a *app) eventsCmd() *cobra.Command {
	var (
		untilDone bool
		types     []string
		quiet     bool
	)
	cmd := &cobra.Command{
		Use:   "events <project-id>",
		Short: "Tail a project's live channel",
		Long: `events connects to the project's live channel and prints every frame as it
arrives: log lines, workflow events, generated files, chat replies and review
requests. Interrupt with ctrl+c, or pass --until-complete to stop when the
workflow finishes or fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			projectID := args[0]

			p := &tailPrinter{w: a.out, quiet: quiet}
			if len(types) > 0 {
				p.only = lo.Associate(types, func(t string) (models.EventType, bool) { return models.EventType(t), true })
			}

			router := events.NewRouter(a.cfg.Chat.EventHistorySize)
			router.OnAny(p.event)

			opts := transport.OptionsFromConfig(a.cfg)
			opts.Sink = router
			live := transport.NewClient(opts)

			done := make(chan struct{})
			var once sync.Once
			unsubscribe := live.Subscribe(func(pid string, env protocol.Envelope) {
				if pid != projectID {
					return
				}
				p.envelope(env)
				if st, ok := env.(protocol.StatusUpdateEnvelope); ok && untilDone && (st.Status == "completed" || st.Status == "error") {
					once.Do(func() { close(done) })
				}
			})
			defer unsubscribe()

			if err := live.Connect(ctx, projectID); err != nil {
				fmt.Fprintf(a.errOut, "%s %v, retrying\n", warnColor("live channel unavailable:"), err)
			}
			defer live.Disconnect()

			select {
			case <-ctx.Done():
			case <-done:
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&untilDone, "until-complete", false, "exit when the workflow completes or fails")
	f.StringSliceVar(&types, "type", nil, "only print these workflow event types (comma separated)")
	f.BoolVarP(&quiet, "quiet", "q", false, "hide debug events and thinking")
	return cmd
}

// tailPrinter serialises output from the read loop and the reconnect timer.
type tailPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	only  map[models.EventType]bool
	quiet bool
}

func (p *tailPrinter) event(e models.WorkflowEvent) {
	if p.only != nil && !p.only[e.EventType] {
		return
	}
	if p.quiet && (e.Severity == models.SeverityDebug || e.EventType == models.EventAgentThinking) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	label := string(e.EventType)
	if e.ProgressPercentage != nil {
		label += fmt.Sprintf(" %3.0f%%", *e.ProgressPercentage)
	}
	stage := ""
	if s, ok := models.ParseStage(e.Stage); ok {
		stage = agentColor(s.Title()) + " "
	}
	paint := levelColor(string(lo.Ternary(e.Severity == "", models.SeverityInfo, e.Severity)))
	fmt.Fprintf(p.w, "%s %s %s%s\n", mutedColor(clockTime(e.Timestamp)), paint(label), stage, e.Message)
}

func (p *tailPrinter) envelope(env protocol.Envelope) {
	// workflow events arrive through the router
	if _, ok := env.(protocol.WorkflowEventEnvelope); ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e := env.(type) {
	case protocol.LogEnvelope:
		if p.quiet && strings.EqualFold(e.Level, "debug") {
			return
		}
		logLine(p.w, e.Timestamp, e.Level, e.Agent, e.Message)
	case protocol.FileGeneratedEnvelope:
		fmt.Fprintf(p.w, "%s %s %s\n", mutedColor(clockTime(e.Timestamp)), successColor("FILE   "), e.Key())
	case protocol.ChatMessageEnvelope:
		fmt.Fprintf(p.w, "%s %s %s\n", mutedColor(clockTime(e.Timestamp)), headerColor("YOU    "), e.Content)
	case protocol.ChatResponseEnvelope:
		fmt.Fprintf(p.w, "%s %s %s\n", mutedColor(clockTime(e.Timestamp)), headerColor("AI-SOL "), e.Message)
		for _, b := range e.Buttons {
			fmt.Fprintf(p.w, "         [%s]\n", b.Label)
		}
	case protocol.AwaitingReviewEnvelope:
		fmt.Fprintf(p.w, "%s %s %s review: %s\n", mutedColor(clockTime(e.Timestamp)), warnColor("REVIEW "), e.Stage, e.Prompt)
		for _, f := range e.Files {
			fmt.Fprintf(p.w, "         %s\n", f)
		}
		fmt.Fprintf(p.w, "         %s\n", mutedColor(fmt.Sprintf("approve with: %s approve <project-id>", appName)))
	case protocol.StatusUpdateEnvelope:
		fmt.Fprintf(p.w, "%s %s %s\n", mutedColor(clockTime(e.Timestamp)), headerColor("STATUS "), statusColor(e.Status)(e.Status))
	case protocol.ConnectionStatusEnvelope:
		switch {
		case e.Connected:
			fmt.Fprintf(p.w, "%s %s\n", mutedColor(clockTime(e.Timestamp)), successColor("● connected"))
		default:
			fmt.Fprintf(p.w, "%s %s\n", mutedColor(clockTime(e.Timestamp)), warnColor(fmt.Sprintf("◌ disconnected (attempt %d)", e.ReconnectAttempts)))
		}
	}
}
