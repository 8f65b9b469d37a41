// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"encoding/json"
	"fmt"
)

type frameHeader struct {
	Type Type `json:"type"`
}

// Decode turns one raw frame into an Envelope. It never fails: a frame that
// is not JSON, has an unknown type or does not match its variant becomes a
// LogEnvelope at info level from SystemAgent carrying the raw text.
func Decode(frame []byte) Envelope {
	var h frameHeader
	if err := json.Unmarshal(frame, &h); err != nil {
		return fallback(frame)
	}

	env, err := decodeAs(h.Type, frame)
	if err != nil {
		return fallback(frame)
	}
	return env
}

func decodeAs(t Type, frame []byte) (Envelope, error) {
	switch t {
	case TypeLog:
		return unmarshalInto[LogEnvelope](frame)
	case TypeFileGenerated:
		return unmarshalInto[FileGeneratedEnvelope](frame)
	case TypeChatMessage:
		return unmarshalInto[ChatMessageEnvelope](frame)
	case TypeChatResponse:
		env, err := unmarshalInto[ChatResponseEnvelope](frame)
		if err != nil {
			return nil, err
		}
		env.Message = env.Reply()
		return env, nil
	case TypeAwaitingReview:
		return unmarshalInto[AwaitingReviewEnvelope](frame)
	case TypeStatusUpdate:
		return unmarshalInto[StatusUpdateEnvelope](frame)
	case TypeConnectionStatus:
		return unmarshalInto[ConnectionStatusEnvelope](frame)
	case TypeWorkflowEvent:
		env, err := unmarshalInto[WorkflowEventEnvelope](frame)
		if err != nil {
			return nil, err
		}
		if env.Event.EventType == "" {
			return nil, fmt.Errorf("workflow_event without event_type")
		}
		return env, nil
	default:
		return nil, fmt.Errorf("unknown envelope type %q", t)
	}
}

func unmarshalInto[T any](frame []byte) (T, error) {
	var v T
	err := json.Unmarshal(frame, &v)
	return v, err
}

func fallback(frame []byte) LogEnvelope {
	return LogEnvelope{
		Level:   "info",
		Agent:   SystemAgent,
		Message: string(frame),
	}
}

// Encode renders env as a frame with its type field set.
func Encode(env Envelope) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("encode: nil envelope")
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.EnvelopeType(), err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", env.EnvelopeType(), err)
	}
	typ, _ := json.Marshal(env.EnvelopeType())
	fields["type"] = typ
	return json.Marshal(fields)
}
