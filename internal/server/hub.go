// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/protocol"
)

const (
	maxMessageSize = 64 << 10
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	writeWait      = 10 * time.Second
	maxClients     = 1000
	sendBuffer     = 256
)

// newUpgrader accepts any origin when allowedOrigins is empty (local
// development); otherwise only the listed origins.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			_, ok := allowed[r.Header.Get("Origin")]
			return ok
		},
	}
}

// wsClient is one live connection viewing a project.
type wsClient struct {
	projectID string
	conn      *websocket.Conn
	send      chan []byte
}

// Hub fans envelopes out to every connection of a project.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*wsClient]struct{}
	total int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*wsClient]struct{})}
}

// Broadcast encodes env and queues it for every viewer of projectID.
// Slow clients drop frames rather than block the workflow.
func (h *Hub) Broadcast(projectID string, env protocol.Envelope) {
	log := getLog()
	data, err := protocol.Encode(env)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode envelope for broadcast")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[projectID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("project_id", projectID).Msg("Dropping frame for slow WebSocket client")
		}
	}
}

// Viewers returns the number of connections open for projectID.
func (h *Hub) Viewers(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[projectID])
}

// CloseProject drops every connection of projectID.
func (h *Hub) CloseProject(projectID string) {
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.rooms[projectID]))
	for c := range h.rooms[projectID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		_ = c.conn.Close()
	}
}

func (h *Hub) add(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.total >= maxClients {
		return false
	}
	room, ok := h.rooms[c.projectID]
	if !ok {
		room = make(map[*wsClient]struct{})
		h.rooms[c.projectID] = room
	}
	room[c] = struct{}{}
	h.total++
	return true
}

func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[c.projectID]
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	h.total--
	if len(room) == 0 {
		delete(h.rooms, c.projectID)
	}
}

// HandleWebSocket serves /ws/{projectID}.
func (h *Hub) HandleWebSocket(allowedOrigins []string) http.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		log := getLog()
		projectID := chi.URLParam(r, "projectID")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("WebSocket upgrade failed")
			return
		}

		client := &wsClient{projectID: projectID, conn: conn, send: make(chan []byte, sendBuffer)}
		if !h.add(client) {
			log.Warn().Msg("WebSocket connection limit reached")
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many connections"))
			_ = conn.Close()
			return
		}
		log.Info().Str("remote", r.RemoteAddr).Str("project_id", projectID).Msg("WebSocket client connected")

		go client.writePump()
		client.readPump(h)
	}
}

// readPump only keeps the connection alive; chat travels over REST, so
// inbound frames are logged and discarded.
func (c *wsClient) readPump(h *Hub) {
	log := getLog()
	defer func() {
		h.remove(c)
		close(c.send)
		_ = c.conn.Close()
		log.Info().Str("project_id", c.projectID).Msg("WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}
		log.Debug().Str("project_id", c.projectID).Int("bytes", len(message)).Msg("Ignoring inbound WebSocket frame")
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log := getLog()
				log.Debug().Err(err).Msg("WebSocket write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
