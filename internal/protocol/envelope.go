// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package protocol defines every message the backend pushes over the live
// channel. All data the dashboard can receive is an Envelope; the `type`
// field of the frame selects the variant.
package protocol

import (
	"encoding/json"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

// Type discriminates envelope variants on the wire.
type Type string

const (
	TypeLog              Type = "LOG"
	TypeFileGenerated    Type = "FILE_GENERATED"
	TypeChatMessage      Type = "CHAT_MESSAGE"
	TypeChatResponse     Type = "CHAT_RESPONSE"
	TypeAwaitingReview   Type = "AWAITING_REVIEW"
	TypeStatusUpdate     Type = "STATUS_UPDATE"
	TypeConnectionStatus Type = "CONNECTION_STATUS"
	TypeWorkflowEvent    Type = "workflow_event"
)

// SystemAgent is the agent name attached to frames the client could not decode.
const SystemAgent = "SYSTEM"

// Envelope is the closed set of decoded live-channel messages.
// Only types in this package implement it.
type Envelope interface {
	EnvelopeType() Type
	envelope()
}

// LogEnvelope is a log line from an agent or the workflow engine.
type LogEnvelope struct {
	Level     string           `json:"level"`
	Message   string           `json:"message"`
	Agent     string           `json:"agent,omitempty"`
	Timestamp models.Timestamp `json:"timestamp"`
}

// FileGeneratedEnvelope announces a new or regenerated file.
type FileGeneratedEnvelope struct {
	models.GeneratedFile
}

// ChatMessageEnvelope is a chat entry broadcast to every viewer of a project.
type ChatMessageEnvelope struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Timestamp models.Timestamp `json:"timestamp"`
	Metadata  json.RawMessage  `json:"metadata,omitempty"`
}

// ChatResponseEnvelope is an AI reply. Older backends put the text in
// content rather than message; Decode normalises both into Message.
type ChatResponseEnvelope struct {
	Message   string              `json:"message"`
	Content   string              `json:"content,omitempty"`
	Action    string              `json:"action,omitempty"`
	Buttons   []models.ChatButton `json:"buttons,omitempty"`
	Timestamp models.Timestamp    `json:"timestamp"`
}

// AwaitingReviewEnvelope reports that the workflow paused for approval.
type AwaitingReviewEnvelope struct {
	Stage     string           `json:"stage"`
	Prompt    string           `json:"prompt,omitempty"`
	Files     []string         `json:"files,omitempty"`
	Timestamp models.Timestamp `json:"timestamp"`
}

// StatusUpdateEnvelope carries a new overall project status string.
type StatusUpdateEnvelope struct {
	Status    string           `json:"status"`
	Timestamp models.Timestamp `json:"timestamp"`
}

// ConnectionStatusEnvelope is synthesised by the transport on open and close.
// The backend never sends it.
type ConnectionStatusEnvelope struct {
	Connected         bool             `json:"connected"`
	ReconnectAttempts int              `json:"reconnect_attempts"`
	Timestamp         models.Timestamp `json:"timestamp"`
}

// WorkflowEventEnvelope wraps a structured event from the backend event bus.
type WorkflowEventEnvelope struct {
	Event models.WorkflowEvent `json:"event"`
}

func (LogEnvelope) EnvelopeType() Type              { return TypeLog }
func (FileGeneratedEnvelope) EnvelopeType() Type    { return TypeFileGenerated }
func (ChatMessageEnvelope) EnvelopeType() Type      { return TypeChatMessage }
func (ChatResponseEnvelope) EnvelopeType() Type     { return TypeChatResponse }
func (AwaitingReviewEnvelope) EnvelopeType() Type   { return TypeAwaitingReview }
func (StatusUpdateEnvelope) EnvelopeType() Type     { return TypeStatusUpdate }
func (ConnectionStatusEnvelope) EnvelopeType() Type { return TypeConnectionStatus }
func (WorkflowEventEnvelope) EnvelopeType() Type    { return TypeWorkflowEvent }

func (LogEnvelope) envelope()              {}
func (FileGeneratedEnvelope) envelope()    {}
func (ChatMessageEnvelope) envelope()      {}
func (ChatResponseEnvelope) envelope()     {}
func (AwaitingReviewEnvelope) envelope()   {}
func (StatusUpdateEnvelope) envelope()     {}
func (ConnectionStatusEnvelope) envelope() {}
func (WorkflowEventEnvelope) envelope()    {}

// Reply returns the reply text, whichever field the backend used.
func (e ChatResponseEnvelope) Reply() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Content
}
