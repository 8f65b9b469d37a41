// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// NormalizeRole maps the backend's role spellings onto user or ai.
func NormalizeRole(s string) Role {
	switch s {
	case "user", "human":
		return RoleUser
	default:
		return RoleAI
	}
}

// ChatButton is a follow-on action offered with an AI reply.
type ChatButton struct {
	Label   string `json:"label"`
	Action  string `json:"action,omitempty"`
	Variant string `json:"variant,omitempty"` // "primary" or "secondary"
}

// ChatMessage is one transcript entry.
type ChatMessage struct {
	Role      Role         `json:"role"`
	Content   string       `json:"content"`
	Timestamp time.Time    `json:"timestamp"`
	Action    string       `json:"action,omitempty"`
	Buttons   []ChatButton `json:"buttons,omitempty"`
}

// DuplicateOf reports whether m and other are the same logical message:
// same role, same content and timestamps no more than window apart.
func (m ChatMessage) DuplicateOf(other ChatMessage, window time.Duration) bool {
	if m.Role != other.Role || m.Content != other.Content {
		return false
	}
	d := m.Timestamp.Sub(other.Timestamp)
	if d < 0 {
		d = -d
	}
	return d <= window
}
