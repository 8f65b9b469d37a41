// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/spf13/cast"
)

// Timestamp is a point in time as the backend writes it: usually an ISO-8601
// string without a zone, sometimes with one, occasionally unix seconds
// (fractions kept to the millisecond).
// Zoneless values are read in local time. A value that cannot be parsed
// decodes to the zero Timestamp instead of failing the surrounding message.
type Timestamp struct {
	time.Time
}

// At wraps t.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}

	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := cast.ToTimeInDefaultLocationE(v, time.Local); err == nil {
			t.Time = parsed
		}
	case float64:
		t.Time = time.UnixMilli(int64(math.Round(v * 1000)))
	}
	return nil
}

// MarshalJSON implements json.Marshaler. The zero value encodes as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Or returns t, or fallback when t is zero.
func (t Timestamp) Or(fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t.Time
}
