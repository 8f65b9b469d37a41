// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/api"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/dashboard"
)

func (a *app) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <project-id> <message...>",
		Short: "Send a chat message to the project's agents",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.sendChat(cmd, args[0], strings.Join(args[1:], " "))
		},
	}
}

func (a *app) approveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <project-id>",
		Short: "Approve the files of the stage waiting for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.sendChat(cmd, args[0], dashboard.ApproveToken)
		},
	}
}

func (a *app) sendChat(cmd *cobra.Command, projectID, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return errors.New("message is empty")
	}
	reply, err := a.client.Chat(cmd.Context(), projectID, message)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	if a.jsonOut {
		return printJSON(a.out, reply)
	}
	printReply(a, reply)
	return nil
}

func printReply(a *app, reply api.ChatReply) {
	paint := headerColor
	if reply.Action == "error" || reply.Status == "error" {
		paint = errorColor
	}
	fmt.Fprintf(a.out, "%s %s\n", paint("AI-SOL:"), reply.Message)
	for _, b := range reply.Buttons {
		hint := ""
		if b.Action == "approve" {
			hint = mutedColor(fmt.Sprintf("  (%s approve <project-id>)", appName))
		}
		fmt.Fprintf(a.out, "  [%s]%s\n", b.Label, hint)
	}
}
