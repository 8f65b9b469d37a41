// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dashboard merges the live channel, the status poller and user
// actions into one consistent view of a project's workflow.
package dashboard

import (
	"time"

	"github.com/samber/lo"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

// LogLine is one entry of the activity feed.
type LogLine struct {
	Level     string    `json:"level"`
	Agent     string    `json:"agent,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// State is a snapshot of everything the presentation layer renders.
// Values returned by Reducer.State are deep copies and safe to keep.
type State struct {
	ProjectID string

	Stages       map[models.Stage]*models.StageInfo
	Files        []models.GeneratedFile
	SelectedFile string // key of the selected file, empty when none
	Chat         []models.ChatMessage
	Loading      bool // a chat request is in flight

	Connected         bool
	ReconnectAttempts int

	AwaitingReview bool
	ReviewStage    string
	ReviewPrompt   string

	// Status is the overall project status, from polls or STATUS_UPDATE.
	Status    string
	Completed bool

	PollFailures int
	Logs         []LogLine
	Anomalies    int // backward stage transitions observed
	Expanded     map[models.Stage]bool
	SaveMessage  string

	Restored  bool // initial state came from the session cache
	UpdatedAt time.Time
}

func newState(projectID string) State {
	return State{
		ProjectID: projectID,
		Stages:    models.NewStageMap(),
		Expanded:  make(map[models.Stage]bool),
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	c.Stages = make(map[models.Stage]*models.StageInfo, len(s.Stages))
	for k, v := range s.Stages {
		c.Stages[k] = v.Clone()
	}
	c.Files = append([]models.GeneratedFile(nil), s.Files...)
	c.Chat = make([]models.ChatMessage, len(s.Chat))
	for i, m := range s.Chat {
		m.Buttons = append([]models.ChatButton(nil), m.Buttons...)
		c.Chat[i] = m
	}
	c.Logs = append([]LogLine(nil), s.Logs...)
	c.Expanded = make(map[models.Stage]bool, len(s.Expanded))
	for k, v := range s.Expanded {
		c.Expanded[k] = v
	}
	return c
}

// Selected returns the selected file, if any.
func (s State) Selected() (models.GeneratedFile, bool) {
	if s.SelectedFile == "" {
		return models.GeneratedFile{}, false
	}
	return lo.Find(s.Files, func(f models.GeneratedFile) bool { return f.Key() == s.SelectedFile })
}

// File looks up a file by key.
func (s State) File(key string) (models.GeneratedFile, bool) {
	return lo.Find(s.Files, func(f models.GeneratedFile) bool { return f.Key() == key })
}

// Stage returns the info for st. Unknown stages yield a pending placeholder.
func (s State) Stage(st models.Stage) models.StageInfo {
	if info, ok := s.Stages[st]; ok && info != nil {
		return *info
	}
	return models.StageInfo{Stage: st, Status: models.StatusPending}
}

// CurrentStage is the running stage, else the last failed one, else the
// first pending one after the completed prefix.
func (s State) CurrentStage() (models.Stage, bool) {
	for _, st := range models.Stages {
		if s.Stage(st).Status == models.StatusRunning {
			return st, true
		}
	}
	for _, st := range models.Stages {
		if s.Stage(st).Status == models.StatusFailed {
			return st, true
		}
	}
	for _, st := range models.Stages {
		if s.Stage(st).Status == models.StatusPending {
			return st, true
		}
	}
	return "", false
}

// Progress returns completed and total stage counts.
func (s State) Progress() (completed, total int) {
	completed = lo.CountBy(models.Stages, func(st models.Stage) bool {
		return s.Stage(st).Status == models.StatusCompleted
	})
	return completed, len(models.Stages)
}

func (s State) fileIndex(key string) int {
	_, idx, ok := lo.FindIndexOf(s.Files, func(f models.GeneratedFile) bool { return f.Key() == key })
	if !ok {
		return -1
	}
	return idx
}

// snapshot projects the reducer state onto the status record kept in the cache.
func (s State) snapshot() models.ProjectStatus {
	steps := lo.FilterMap(models.Stages, func(st models.Stage, _ int) (string, bool) {
		return string(st), s.Stage(st).Status == models.StatusCompleted
	})
	cur := ""
	if st, ok := s.CurrentStage(); ok && s.Stage(st).Status == models.StatusRunning {
		cur = string(st)
	}
	return models.ProjectStatus{
		Status:         s.Status,
		CurrentStep:    cur,
		Completed:      s.Completed,
		StepsCompleted: steps,
		GeneratedFiles: append([]models.GeneratedFile(nil), s.Files...),
	}
}
