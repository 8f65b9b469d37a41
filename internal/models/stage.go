// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"strings"
	"time"
)

// Stage is one phase of the backend workflow.
type Stage string

const (
	StageRequirements Stage = "requirements"
	StageArchitecture Stage = "architecture"
	StageDeveloper    Stage = "developer"
	StageQA           Stage = "qa"
	StageDevOps       Stage = "devops"
)

// Stages lists every stage in workflow order.
var Stages = []Stage{
	StageRequirements,
	StageArchitecture,
	StageDeveloper,
	StageQA,
	StageDevOps,
}

// ParseStage maps a backend stage name onto a Stage. Matching ignores case
// and surrounding whitespace.
func ParseStage(s string) (Stage, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, st := range Stages {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Index returns the position of s in Stages, or -1.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Title returns a display name for the stage.
func (s Stage) Title() string {
	switch s {
	case StageQA:
		return "QA"
	case StageDevOps:
		return "DevOps"
	case "":
		return ""
	default:
		return strings.ToUpper(string(s[:1])) + string(s[1:])
	}
}

// StageStatus is the lifecycle position of a stage.
type StageStatus string

const (
	StatusPending   StageStatus = "pending"
	StatusRunning   StageStatus = "running"
	StatusCompleted StageStatus = "completed"
	StatusFailed    StageStatus = "failed"
)

// Terminal reports whether the status is completed or failed.
func (s StageStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// rank orders statuses along pending -> running -> completed|failed.
func (s StageStatus) rank() int {
	switch s {
	case StatusRunning:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	default:
		return 0
	}
}

// Regresses reports whether moving from s to next goes backwards in the
// lifecycle, including a switch between the two terminal states.
func (s StageStatus) Regresses(next StageStatus) bool {
	if next.rank() < s.rank() {
		return true
	}
	return s.Terminal() && next.Terminal() && s != next
}

// StageInfo is the reducer's view of a single stage.
type StageInfo struct {
	Stage     Stage           `json:"stage"`
	Status    StageStatus     `json:"status"`
	Agent     string          `json:"agent,omitempty"`
	StartedAt time.Time       `json:"started_at,omitempty"`
	EndedAt   time.Time       `json:"ended_at,omitempty"`
	Message   string          `json:"message,omitempty"`
	Events    []WorkflowEvent `json:"events,omitempty"`
}

// NewStageMap returns every stage in the pending state.
func NewStageMap() map[Stage]*StageInfo {
	m := make(map[Stage]*StageInfo, len(Stages))
	for _, s := range Stages {
		m[s] = &StageInfo{Stage: s, Status: StatusPending}
	}
	return m
}

// Clone returns a deep copy.
func (si *StageInfo) Clone() *StageInfo {
	if si == nil {
		return nil
	}
	c := *si
	c.Events = append([]WorkflowEvent(nil), si.Events...)
	return &c
}
