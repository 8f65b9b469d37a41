// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport owns the live websocket channel to the backend: one
// connection per active project, decoded into protocol envelopes, with a
// bounded fixed-interval reconnect policy.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gorilla/websocket"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/config"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/protocol"
)

// ErrNotConnected is returned by Send when no connection is open.
var ErrNotConnected = errors.New("transport: not connected")

// Listener receives every envelope decoded from the live channel, plus the
// synthesised connection status envelopes, tagged with the project id the
// connection belongs to.
type Listener func(projectID string, env protocol.Envelope)

// EventSink receives the nested event of every workflow_event frame.
// *events.Router implements it.
type EventSink interface {
	HandleEvent(models.WorkflowEvent)
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL              string
	Token                string
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int // zero disables reconnecting
	HandshakeTimeout     time.Duration
	Clock                clock.Clock
	Dialer               Dialer
	Sink                 EventSink
}

// OptionsFromConfig maps the live section of the app config onto Options.
func OptionsFromConfig(cfg *config.AppConfig) Options {
	return Options{
		BaseURL:              cfg.Live.BaseURL,
		Token:                cfg.API.Token,
		ReconnectInterval:    cfg.Live.ReconnectInterval,
		MaxReconnectAttempts: cfg.Live.MaxReconnectAttempts,
		HandshakeTimeout:     cfg.Live.HandshakeTimeout,
	}
}

// State is a point-in-time view of the connection.
type State struct {
	ProjectID         string
	Connected         bool
	ReconnectAttempts int
	Exhausted         bool // the reconnect budget ran out; no retry is scheduled
}

// Client is the live channel client. All methods are safe for concurrent use.
type Client struct {
	opts Options

	mu        sync.Mutex
	gen       uint64 // bumped on every Connect/Disconnect; stale callbacks compare against it
	projectID string
	conn      Conn
	attempts  int
	exhausted bool
	timer     *clock.Timer

	writeMu sync.Mutex

	lmu       sync.RWMutex
	nextID    uint64
	listeners map[uint64]Listener
}

// NewClient returns a disconnected client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "ws://localhost:8000/ws"
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = 3 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Dialer == nil {
		opts.Dialer = NewGorillaDialer(opts.HandshakeTimeout)
	}
	return &Client{
		opts:      opts,
		listeners: make(map[uint64]Listener),
	}
}

// Subscribe registers fn and returns a function that removes it.
func (c *Client) Subscribe(fn Listener) (unsubscribe func()) {
	c.lmu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = fn
	c.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.lmu.Lock()
			delete(c.listeners, id)
			c.lmu.Unlock()
		})
	}
}

// Connect drops any previous connection, resets the retry counter and dials
// the channel for projectID. A failed dial is not final: the error is
// returned and the reconnect policy takes over.
func (c *Client) Connect(ctx context.Context, projectID string) error {
	if projectID == "" {
		return errors.New("transport: empty project id")
	}
	c.mu.Lock()
	c.teardownLocked()
	c.projectID = projectID
	c.attempts = 0
	c.exhausted = false
	gen := c.gen
	c.mu.Unlock()

	return c.dial(ctx, gen, projectID)
}

// Disconnect closes the connection and forgets the project. Callbacks from
// the closed connection are ignored, so no reconnect is scheduled and no
// status is published. Calling it again is a no-op.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.projectID == "" && c.conn == nil && c.timer == nil {
		return
	}
	c.teardownLocked()
	c.projectID = ""
	c.attempts = 0
	c.exhausted = false
}

func (c *Client) teardownLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Send marshals payload to JSON and writes it if the connection is open.
// Nothing is queued: without a connection the payload is dropped.
func (c *Client) Send(payload any) error {
	c.mu.Lock()
	conn := c.conn
	pid := c.projectID
	c.mu.Unlock()

	if conn == nil {
		log := logger.GetTransportLogger()
		log.Warn().Str("project_id", pid).Msg("Dropping outbound message, live channel is not connected")
		return ErrNotConnected
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// State reports the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		ProjectID:         c.projectID,
		Connected:         c.conn != nil,
		ReconnectAttempts: c.attempts,
		Exhausted:         c.exhausted,
	}
}

func (c *Client) channelURL(projectID string) (string, error) {
	return url.JoinPath(c.opts.BaseURL, projectID)
}

func (c *Client) header() http.Header {
	h := http.Header{}
	if c.opts.Token != "" {
		h.Set("Authorization", "Bearer "+c.opts.Token)
	}
	return h
}

func (c *Client) dial(ctx context.Context, gen uint64, projectID string) error {
	log := logger.GetTransportLogger()

	target, err := c.channelURL(projectID)
	if err != nil {
		return fmt.Errorf("build live channel url: %w", err)
	}

	conn, dialErr := c.opts.Dialer.DialContext(ctx, target, c.header())

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return nil
	}
	if dialErr != nil {
		attempts := c.attempts
		c.mu.Unlock()
		log.Warn().Err(dialErr).Str("project_id", projectID).Int("attempts", attempts).Msg("Live channel dial failed")
		c.publishStatus(projectID, false, attempts)
		c.scheduleReconnect(gen)
		return fmt.Errorf("dial %s: %w", target, dialErr)
	}
	c.conn = conn
	c.attempts = 0
	c.exhausted = false
	c.mu.Unlock()

	log.Info().Str("project_id", projectID).Str("url", target).Msg("Live channel connected")
	c.publishStatus(projectID, true, 0)

	go c.readLoop(gen, projectID, conn)
	return nil
}

func (c *Client) readLoop(gen uint64, projectID string, conn Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(gen, projectID, conn, err)
			return
		}
		if !c.current(gen) {
			return
		}

		env := protocol.Decode(frame)
		if w, ok := env.(protocol.WorkflowEventEnvelope); ok && c.opts.Sink != nil {
			c.opts.Sink.HandleEvent(w.Event)
		}
		c.publish(projectID, env)
	}
}

func (c *Client) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

func (c *Client) handleClose(gen uint64, projectID string, conn Conn, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	if c.conn == conn {
		c.conn = nil
	}
	attempts := c.attempts
	c.mu.Unlock()
	_ = conn.Close()

	log := logger.GetTransportLogger()
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		log.Warn().Err(err).Str("project_id", projectID).Msg("Live channel closed unexpectedly")
	} else {
		log.Info().Str("project_id", projectID).Msg("Live channel closed")
	}

	c.publishStatus(projectID, false, attempts)
	c.scheduleReconnect(gen)
}

func (c *Client) scheduleReconnect(gen uint64) {
	log := logger.GetTransportLogger()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.conn != nil || c.timer != nil {
		return
	}
	if c.attempts >= c.opts.MaxReconnectAttempts {
		c.exhausted = true
		log.Error().
			Str("project_id", c.projectID).
			Int("attempts", c.attempts).
			Msg("Live channel reconnect attempts exhausted, giving up")
		return
	}

	c.attempts++
	log.Info().
		Str("project_id", c.projectID).
		Int("attempt", c.attempts).
		Int("max", c.opts.MaxReconnectAttempts).
		Dur("in", c.opts.ReconnectInterval).
		Msg("Scheduling live channel reconnect")

	projectID := c.projectID
	c.timer = c.opts.Clock.AfterFunc(c.opts.ReconnectInterval, func() {
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.timer = nil
		c.mu.Unlock()

		ctx := context.Background()
		var cancel context.CancelFunc
		if c.opts.HandshakeTimeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, c.opts.HandshakeTimeout)
			defer cancel()
		}
		_ = c.dial(ctx, gen, projectID)
	})
}

func (c *Client) publishStatus(projectID string, connected bool, attempts int) {
	c.publish(projectID, protocol.ConnectionStatusEnvelope{
		Connected:         connected,
		ReconnectAttempts: attempts,
		Timestamp:         models.At(c.opts.Clock.Now()),
	})
}

func (c *Client) publish(projectID string, env protocol.Envelope) {
	c.lmu.RLock()
	ls := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		ls = append(ls, l)
	}
	c.lmu.RUnlock()

	for _, l := range ls {
		c.deliver(l, projectID, env)
	}
}

func (c *Client) deliver(l Listener, projectID string, env protocol.Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			log := logger.GetTransportLogger()
			log.Error().
				Str("envelope", string(env.EnvelopeType())).
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Msg("Live channel listener panicked")
		}
	}()
	l(projectID, env)
}
