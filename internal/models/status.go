// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ProjectStatus is the snapshot returned by the status endpoint.
type ProjectStatus struct {
	Status         string          `json:"status"`
	CurrentStep    string          `json:"current_step,omitempty"`
	Completed      bool            `json:"completed"`
	StepsCompleted []string        `json:"steps_completed"`
	GeneratedFiles []GeneratedFile `json:"generated_files"`
}

// UnmarshalJSON accepts steps as bare names or objects with a stage/name
// field, and files as bare paths or file records.
func (s *ProjectStatus) UnmarshalJSON(b []byte) error {
	var raw struct {
		Status         string            `json:"status"`
		CurrentStep    *string           `json:"current_step"`
		Completed      bool              `json:"completed"`
		StepsCompleted []json.RawMessage `json:"steps_completed"`
		GeneratedFiles []json.RawMessage `json:"generated_files"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*s = ProjectStatus{Status: raw.Status, Completed: raw.Completed}
	if raw.CurrentStep != nil {
		s.CurrentStep = *raw.CurrentStep
	}
	for _, item := range raw.StepsCompleted {
		step, err := decodeStep(item)
		if err != nil {
			return err
		}
		if step != "" {
			s.StepsCompleted = append(s.StepsCompleted, step)
		}
	}
	for _, item := range raw.GeneratedFiles {
		f, err := decodeFile(item)
		if err != nil {
			return err
		}
		if f.Key() != "" {
			s.GeneratedFiles = append(s.GeneratedFiles, f)
		}
	}
	return nil
}

func decodeStep(b json.RawMessage) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var name string
		err := json.Unmarshal(b, &name)
		return name, err
	}
	var obj struct {
		Stage string `json:"stage"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return "", fmt.Errorf("decode step: %w", err)
	}
	if obj.Stage != "" {
		return obj.Stage, nil
	}
	return obj.Name, nil
}

func decodeFile(b json.RawMessage) (GeneratedFile, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var p string
		if err := json.Unmarshal(b, &p); err != nil {
			return GeneratedFile{}, err
		}
		return FileFromPath(p), nil
	}
	var f GeneratedFile
	if err := json.Unmarshal(b, &f); err != nil {
		return GeneratedFile{}, fmt.Errorf("decode generated file: %w", err)
	}
	return f, nil
}

// ProjectSummary is one row of the project listing.
type ProjectSummary struct {
	ProjectID      string    `json:"project_id"`
	ProjectName    string    `json:"project_name"`
	Status         string    `json:"status"`
	CurrentStep    string    `json:"current_step"`
	StepsCompleted []string  `json:"steps_completed"`
	CreatedAt      Timestamp `json:"created_at"`
	LastSaved      Timestamp `json:"last_saved"`
}

// LogEntry is one line of a project's log.
type LogEntry struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Agent     string    `json:"agent,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
}

// UnmarshalJSON accepts either a bare string or an object.
func (l *LogEntry) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		*l = LogEntry{Level: "info"}
		return json.Unmarshal(b, &l.Message)
	}
	type plain LogEntry
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*l = LogEntry(p)
	return nil
}
