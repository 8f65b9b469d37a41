// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/api"
)

func (a *app) filesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files <project-id>",
		Short: "List a project's generated files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := a.client.ListFiles(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to list files: %w", err)
			}
			if a.jsonOut {
				return printJSON(a.out, files)
			}
			if len(files) == 0 {
				fmt.Fprintln(a.out, "No files generated yet.")
				return nil
			}
			for _, f := range files {
				fmt.Fprintln(a.out, f)
			}
			return nil
		},
	}
}

func (a *app) catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <project-id> <path>",
		Short: "Print a generated file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := a.client.GetFileContent(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[1], err)
			}
			if a.jsonOut {
				return printJSON(a.out, map[string]string{"path": args[1], "content": content})
			}
			_, err = io.WriteString(a.out, content)
			return err
		},
	}
}

func (a *app) saveCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "save <project-id> <path>",
		Short: "Overwrite a generated file with edited content",
		Long:  "save reads the new content from --from, or from standard input when --from is not given.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				content []byte
				err     error
			)
			if from != "" {
				content, err = os.ReadFile(from)
			} else {
				content, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read content: %w", err)
			}
			if err := a.client.SaveFileContent(cmd.Context(), args[0], args[1], string(content)); err != nil {
				return fmt.Errorf("failed to save %s: %w", args[1], err)
			}
			fmt.Fprintf(a.out, "%s %s (%d bytes)\n", successColor("Saved"), args[1], len(content))
			return nil
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "file holding the new content")
	return cmd
}

func (a *app) uploadImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload-image <project-id> <image>",
		Short: "Attach a UI mockup image to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			defer f.Close()

			up, err := a.client.UploadImage(cmd.Context(), args[0], api.Image{Filename: filepath.Base(args[1]), Data: f})
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			if a.jsonOut {
				return printJSON(a.out, up)
			}
			fmt.Fprintf(a.out, "%s %s -> %s\n", successColor("Uploaded"), up.Filename, up.Path)
			return nil
		},
	}
}
