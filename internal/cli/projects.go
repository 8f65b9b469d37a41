// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/api"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

func (a *app) projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "projects",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, err := a.client.ListProjects(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load projects: %w", err)
			}
			if a.jsonOut {
				return printJSON(a.out, projects)
			}
			if len(projects) == 0 {
				fmt.Fprintln(a.out, "No projects found.")
				fmt.Fprintf(a.out, "\nCreate one with:\n  %s create --name my-app --requirements \"...\"\n", appName)
				return nil
			}

			sort.SliceStable(projects, func(i, j int) bool {
				return projects[i].CreatedAt.After(projects[j].CreatedAt.Time)
			})
			tw := newTable(a.out, "ID", "NAME", "STATUS", "STAGES", "CURRENT", "CREATED")
			for _, p := range projects {
				step := ""
				if s, ok := models.ParseStage(p.CurrentStep); ok {
					step = s.Title()
				}
				tw.AppendRow([]any{p.ProjectID, p.ProjectName, statusColor(p.Status)(p.Status), progress(p.StepsCompleted), step, dateTime(p.CreatedAt)})
			}
			tw.Render()
			return nil
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	var (
		req              api.CreateProjectRequest
		requirementsFile string
		images           []string
		start            bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		Example: `  aisol create --name todo-api --requirements "A REST API for todo lists" --start
  aisol create --name shop --type website --requirements-file brief.md --image mockup.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if requirementsFile != "" {
				b, err := os.ReadFile(requirementsFile)
				if err != nil {
					return fmt.Errorf("read requirements: %w", err)
				}
				req.Requirements = string(b)
			}
			if req.EnableGitHub && req.GitHubUsername == "" {
				return errors.New("--github-user is required with --github")
			}
			for _, path := range images {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open image: %w", err)
				}
				defer f.Close()
				req.Images = append(req.Images, api.Image{Filename: filepath.Base(path), Data: f})
			}

			resp, err := a.client.CreateProject(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to create project: %w", err)
			}
			if start {
				if _, err := a.client.StartWorkflow(cmd.Context(), resp.ProjectID); err != nil {
					return fmt.Errorf("project %s created but the workflow did not start: %w", resp.ProjectID, err)
				}
				resp.Status = "started"
			}
			if a.jsonOut {
				return printJSON(a.out, resp)
			}
			fmt.Fprintf(a.out, "%s %s (%s)\n", successColor("Created"), resp.ProjectID, resp.Status)
			if !start {
				fmt.Fprintf(a.out, "Start it with: %s start %s\n", appName, resp.ProjectID)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "project name")
	f.StringVar(&req.Type, "type", "website", "project type: website, ios or android")
	f.StringVar(&req.Requirements, "requirements", "", "what should be built")
	f.StringVar(&requirementsFile, "requirements-file", "", "read the requirements from a file")
	f.BoolVar(&req.GenerateTests, "tests", true, "generate tests")
	f.BoolVar(&req.GenerateDevOps, "devops", false, "generate DevOps files")
	f.BoolVar(&req.EnableGitHub, "github", false, "push the result to GitHub")
	f.StringVar(&req.GitHubUsername, "github-user", "", "GitHub username")
	f.StringVar(&req.GitHubToken, "github-token", os.Getenv("GITHUB_TOKEN"), "GitHub token (default $GITHUB_TOKEN)")
	f.StringArrayVar(&images, "image", nil, "attach a UI mockup image (repeatable)")
	f.BoolVar(&start, "start", false, "start the workflow right away")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) actionCmd(use, short string, call func(a *app, cmd *cobra.Command, id string) (api.ActionResponse, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <project-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := call(a, cmd, args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(a.out, resp)
			}
			if resp.Status == "error" {
				return errors.New(resp.Message)
			}
			msg := lo.Ternary(resp.Message != "", resp.Message, resp.Status)
			fmt.Fprintf(a.out, "%s %s\n", statusColor(resp.Status)(resp.Status), msg)
			return nil
		},
	}
}

func (a *app) startCmd() *cobra.Command {
	return a.actionCmd("start", "Start a project's workflow", func(a *app, cmd *cobra.Command, id string) (api.ActionResponse, error) {
		return a.client.StartWorkflow(cmd.Context(), id)
	})
}

func (a *app) restartCmd() *cobra.Command {
	return a.actionCmd("restart", "Restart a workflow from the beginning", func(a *app, cmd *cobra.Command, id string) (api.ActionResponse, error) {
		return a.client.RestartProject(cmd.Context(), id)
	})
}

func (a *app) deleteCmd() *cobra.Command {
	cmd := a.actionCmd("delete", "Delete a project and its files", func(a *app, cmd *cobra.Command, id string) (api.ActionResponse, error) {
		force, _ := cmd.Flags().GetBool("yes")
		if !force {
			return api.ActionResponse{}, errors.New("refusing to delete without --yes")
		}
		return a.client.DeleteProject(cmd.Context(), id)
	})
	cmd.Flags().BoolP("yes", "y", false, "confirm the deletion")
	return cmd
}

func (a *app) resumeCmd() *cobra.Command {
	cmd := a.actionCmd("resume", "Resume a workflow paused at a review gate", func(a *app, cmd *cobra.Command, id string) (api.ActionResponse, error) {
		input, _ := cmd.Flags().GetString("input")
		return a.client.ResumeProject(cmd.Context(), id, input)
	})
	cmd.Flags().String("input", "", "feedback passed to the next stage")
	return cmd
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <project-id>",
		Short: "Show a project's workflow status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.client.GetStatus(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			if a.jsonOut {
				return printJSON(a.out, st)
			}

			fmt.Fprintf(a.out, "%s %s\n", headerColor("Project"), args[0])
			fmt.Fprintf(a.out, "%s  %s\n", headerColor("Status"), statusColor(st.Status)(st.Status))
			done := make(map[string]bool, len(st.StepsCompleted))
			for _, s := range st.StepsCompleted {
				done[strings.ToLower(s)] = true
			}
			fmt.Fprintln(a.out)
			for _, stage := range models.Stages {
				switch {
				case done[string(stage)]:
					fmt.Fprintf(a.out, "  %s %s\n", successColor("✓"), stage.Title())
				case string(stage) == strings.ToLower(st.CurrentStep):
					fmt.Fprintf(a.out, "  %s %s\n", infoColor("●"), stage.Title())
				default:
					fmt.Fprintf(a.out, "  %s %s\n", mutedColor("○"), mutedColor(stage.Title()))
				}
			}
			if len(st.GeneratedFiles) > 0 {
				fmt.Fprintf(a.out, "\n%s (%d)\n", headerColor("Files"), len(st.GeneratedFiles))
				for _, f := range st.GeneratedFiles {
					fmt.Fprintf(a.out, "  %s\n", f.Key())
				}
			}
			return nil
		},
	}
}

func (a *app) logsCmd() *cobra.Command {
	var tail int
	cmd := &cobra.Command{
		Use:   "logs <project-id>",
		Short: "Print a project's log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := a.client.GetLogs(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get logs: %w", err)
			}
			if tail > 0 && len(logs) > tail {
				logs = logs[len(logs)-tail:]
			}
			if a.jsonOut {
				return printJSON(a.out, logs)
			}
			if len(logs) == 0 {
				fmt.Fprintln(a.out, "No log entries.")
				return nil
			}
			for _, l := range logs {
				logLine(a.out, l.Timestamp, l.Level, l.Agent, l.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&tail, "tail", "n", 0, "only the last n entries")
	return cmd
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("backend unreachable at %s: %w", a.client.BaseURL(), err)
			}
			if a.jsonOut {
				return printJSON(a.out, h)
			}
			fmt.Fprintf(a.out, "%s %s %s, %d projects\n", successColor(h.Status), h.Service, h.Version, h.ProjectsCount)
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the backend's model configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client.Config(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get config: %w", err)
			}
			if a.jsonOut {
				return printJSON(a.out, c)
			}
			fmt.Fprintf(a.out, "%s %s / %s\n", headerColor("Model"), c.ModelProvider, c.ModelName)
			names := lo.Keys(c.Features)
			sort.Strings(names)
			for _, name := range names {
				mark := lo.Ternary(c.Features[name], successColor("on"), mutedColor("off"))
				fmt.Fprintf(a.out, "  %-20s %s\n", name, mark)
			}
			return nil
		},
	}
}
