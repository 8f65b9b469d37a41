// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package elapsedtimer

import (
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "0s", Format(0))
	assert.Equal(t, "42s", Format(42*time.Second))
	assert.Equal(t, "2m 34s", Format(2*time.Minute+34*time.Second+400*time.Millisecond))
	assert.Equal(t, "1h 0m 5s", Format(time.Hour+5*time.Second))
}

func TestSpan(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(90 * time.Second)

	assert.Empty(t, New().View(now))

	open := New().Span(start, time.Time{})
	assert.True(t, open.Running())
	assert.Equal(t, 90*time.Second, open.Elapsed(now))
	assert.Equal(t, "⏱ 1m 30s", ansi.Strip(open.View(now)))

	closed := New().Span(start, start.Add(20*time.Second))
	assert.False(t, closed.Running())
	assert.Equal(t, "⏱ 20s", ansi.Strip(closed.View(now.Add(time.Hour))))

	backwards := New().Span(start, start.Add(-time.Second))
	assert.Zero(t, backwards.Elapsed(now))
}
