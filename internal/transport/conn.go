// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// maxFrameSize bounds inbound frames. FILE_GENERATED frames carry whole files.
const maxFrameSize = 16 << 20

// Conn is the subset of a websocket connection the client uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens live connections. The default implementation is gorilla's.
type Dialer interface {
	DialContext(ctx context.Context, url string, header http.Header) (Conn, error)
}

// GorillaDialer adapts *websocket.Dialer to Dialer.
type GorillaDialer struct {
	Dialer *websocket.Dialer
}

// NewGorillaDialer returns a dialer with the given handshake timeout.
func NewGorillaDialer(handshakeTimeout time.Duration) *GorillaDialer {
	d := *websocket.DefaultDialer
	if handshakeTimeout > 0 {
		d.HandshakeTimeout = handshakeTimeout
	}
	return &GorillaDialer{Dialer: &d}
}

func (g *GorillaDialer) DialContext(ctx context.Context, url string, header http.Header) (Conn, error) {
	conn, resp, err := g.Dialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxFrameSize)
	return conn, nil
}
