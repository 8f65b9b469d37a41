// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import "encoding/json"

// EventType names a workflow event emitted by the backend event bus.
type EventType string

const (
	EventStageStarted   EventType = "stage_started"
	EventStageCompleted EventType = "stage_completed"
	EventStageFailed    EventType = "stage_failed"

	EventAgentThinking EventType = "agent_thinking"
	EventAgentResponse EventType = "agent_response"
	EventAgentError    EventType = "agent_error"

	EventFileGenerated EventType = "file_generated"
	EventFileUpdated   EventType = "file_updated"
	EventFileValidated EventType = "file_validated"

	EventHumanInputRequired EventType = "human_input_required"
	EventUserMessage        EventType = "user_message"

	EventApprovalRequested EventType = "approval_requested"
	EventApprovalGranted   EventType = "approval_granted"
	EventApprovalDenied    EventType = "approval_denied"

	EventWorkflowStarted   EventType = "workflow_started"
	EventWorkflowPaused    EventType = "workflow_paused"
	EventWorkflowResumed   EventType = "workflow_resumed"
	EventWorkflowCompleted EventType = "workflow_completed"

	EventErrorOccurred EventType = "error_occurred"
	EventWarningIssued EventType = "warning_issued"
	EventRetryAttempt  EventType = "retry_attempt"
)

// Severity grades a workflow event.
type Severity string

const (
	SeverityDebug    Severity = "debug"
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// WorkflowEvent is an immutable record produced by the backend.
type WorkflowEvent struct {
	EventType          EventType       `json:"event_type"`
	Timestamp          Timestamp       `json:"timestamp"`
	ProjectID          string          `json:"project_id"`
	Stage              string          `json:"stage,omitempty"`
	Agent              string          `json:"agent,omitempty"`
	Message            string          `json:"message"`
	Data               json.RawMessage `json:"data,omitempty"`
	Severity           Severity        `json:"severity,omitempty"`
	ProgressPercentage *float64        `json:"progress_percentage,omitempty"`
}

// HasStage reports whether the event carries a stage field.
func (e WorkflowEvent) HasStage() bool {
	return e.Stage != ""
}
