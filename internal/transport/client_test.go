// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/protocol"
)

// fakeConn is an in-memory Conn fed through a channel.
type fakeConn struct {
	frames    chan []byte
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	written   [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16), done: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case b := <-f.frames:
		return websocket.TextMessage, b, nil
	case <-f.done:
		return 0, nil, errors.New("closed")
	}
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

// fakeDialer hands out queued connections, failing once the queue is empty.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	urls  []string
}

func (d *fakeDialer) DialContext(_ context.Context, url string, _ http.Header) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls = append(d.urls, url)
	if len(d.conns) == 0 {
		return nil, errors.New("connection refused")
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

type recorder struct {
	mu   sync.Mutex
	envs []protocol.Envelope
	pids []string
}

func (r *recorder) listen(pid string, env protocol.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
	r.pids = append(r.pids, pid)
}

func (r *recorder) snapshot() []protocol.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.Envelope(nil), r.envs...)
}

func (r *recorder) statuses() []bool {
	var out []bool
	for _, env := range r.snapshot() {
		if s, ok := env.(protocol.ConnectionStatusEnvelope); ok {
			out = append(out, s.Connected)
		}
	}
	return out
}

type sink struct {
	mu     sync.Mutex
	events []models.WorkflowEvent
}

func (s *sink) HandleEvent(e models.WorkflowEvent) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *sink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestClient_ReconnectBound(t *testing.T) {
	mock := clock.NewMock()
	dialer := &fakeDialer{}
	c := NewClient(Options{
		BaseURL:              "ws://backend/ws",
		ReconnectInterval:    3 * time.Second,
		MaxReconnectAttempts: 10,
		Clock:                mock,
		Dialer:               dialer,
	})
	rec := &recorder{}
	c.Subscribe(rec.listen)

	err := c.Connect(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, 1, dialer.dials())
	assert.Equal(t, []string{"ws://backend/ws/p1"}, dialer.urls)

	mock.Add(2999 * time.Millisecond)
	assert.Equal(t, 1, dialer.dials(), "no retry before the interval elapses")

	mock.Add(time.Millisecond)
	assert.Equal(t, 2, dialer.dials())

	for i := 0; i < 9; i++ {
		mock.Add(3 * time.Second)
	}
	assert.Equal(t, 11, dialer.dials(), "initial dial plus ten reconnects")
	st := c.State()
	assert.Equal(t, 10, st.ReconnectAttempts)
	assert.True(t, st.Exhausted)
	assert.False(t, st.Connected)

	mock.Add(time.Minute)
	assert.Equal(t, 11, dialer.dials(), "no attempt after the budget is spent")

	statuses := rec.statuses()
	assert.Len(t, statuses, 11)
	for _, s := range statuses {
		assert.False(t, s)
	}
}

func TestClient_SuccessfulOpenResetsCounter(t *testing.T) {
	mock := clock.NewMock()
	first := newFakeConn()
	dialer := &fakeDialer{}
	c := NewClient(Options{MaxReconnectAttempts: 10, Clock: mock, Dialer: dialer})
	rec := &recorder{}
	c.Subscribe(rec.listen)

	require.Error(t, c.Connect(context.Background(), "p1"))
	mock.Add(3 * time.Second) // attempt 2 fails
	assert.Equal(t, 2, c.State().ReconnectAttempts)

	dialer.mu.Lock()
	dialer.conns = []*fakeConn{first}
	dialer.mu.Unlock()
	mock.Add(3 * time.Second)

	st := c.State()
	assert.True(t, st.Connected)
	assert.Equal(t, 0, st.ReconnectAttempts)
	assert.Equal(t, []bool{false, false, true}, rec.statuses())

	// a drop after a good connection starts a fresh budget
	first.Close()
	require.Eventually(t, func() bool {
		return len(rec.statuses()) == 4 && c.State().ReconnectAttempts == 1
	}, time.Second, 5*time.Millisecond)
	assert.False(t, c.State().Connected)
}

func TestClient_WorkflowEventsReachSinkAndListeners(t *testing.T) {
	conn := newFakeConn()
	s := &sink{}
	c := NewClient(Options{Clock: clock.NewMock(), Dialer: &fakeDialer{conns: []*fakeConn{conn}}, Sink: s})
	rec := &recorder{}
	c.Subscribe(rec.listen)

	require.NoError(t, c.Connect(context.Background(), "p1"))
	conn.frames <- []byte(`{"type":"workflow_event","event":{"event_type":"stage_started","project_id":"p1","stage":"requirements","message":"go"}}`)
	conn.frames <- []byte(`{"type":"LOG","level":"info","message":"hello"}`)
	conn.frames <- []byte(`garbage`)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 4 }, time.Second, 5*time.Millisecond)
	envs := rec.snapshot()
	assert.True(t, envs[0].(protocol.ConnectionStatusEnvelope).Connected)
	assert.IsType(t, protocol.WorkflowEventEnvelope{}, envs[1])
	assert.Equal(t, "hello", envs[2].(protocol.LogEnvelope).Message)
	fallback := envs[3].(protocol.LogEnvelope)
	assert.Equal(t, protocol.SystemAgent, fallback.Agent)
	assert.Equal(t, "garbage", fallback.Message)

	assert.Equal(t, 1, s.len())
	rec.mu.Lock()
	assert.Equal(t, []string{"p1", "p1", "p1", "p1"}, rec.pids)
	rec.mu.Unlock()
}

func TestClient_DisconnectIsQuietAndIdempotent(t *testing.T) {
	mock := clock.NewMock()
	conn := newFakeConn()
	dialer := &fakeDialer{conns: []*fakeConn{conn}}
	c := NewClient(Options{MaxReconnectAttempts: 10, Clock: mock, Dialer: dialer})
	rec := &recorder{}
	c.Subscribe(rec.listen)

	require.NoError(t, c.Connect(context.Background(), "p1"))
	c.Disconnect()
	c.Disconnect()

	mock.Add(time.Minute)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, []bool{true}, rec.statuses(), "no disconnect status after an explicit disconnect")
	assert.Equal(t, 1, dialer.dials(), "no reconnect after an explicit disconnect")
	assert.Equal(t, State{}, c.State())
}

func TestClient_DisconnectCancelsPendingRetry(t *testing.T) {
	mock := clock.NewMock()
	dialer := &fakeDialer{}
	c := NewClient(Options{MaxReconnectAttempts: 10, Clock: mock, Dialer: dialer})

	require.Error(t, c.Connect(context.Background(), "p1"))
	c.Disconnect()
	mock.Add(time.Minute)
	assert.Equal(t, 1, dialer.dials())
}

func TestClient_StaleConnectionIgnoredAfterSwitch(t *testing.T) {
	old, fresh := newFakeConn(), newFakeConn()
	c := NewClient(Options{Clock: clock.NewMock(), Dialer: &fakeDialer{conns: []*fakeConn{old, fresh}}})
	rec := &recorder{}
	c.Subscribe(rec.listen)

	require.NoError(t, c.Connect(context.Background(), "p1"))
	require.NoError(t, c.Connect(context.Background(), "p2"))
	old.frames <- []byte(`{"type":"LOG","message":"from p1"}`)
	fresh.frames <- []byte(`{"type":"LOG","message":"from p2"}`)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.envs, 3)
	assert.Equal(t, []string{"p1", "p2", "p2"}, rec.pids)
	assert.Equal(t, "from p2", rec.envs[2].(protocol.LogEnvelope).Message)
}

func TestClient_SendRequiresConnection(t *testing.T) {
	conn := newFakeConn()
	c := NewClient(Options{Clock: clock.NewMock(), Dialer: &fakeDialer{conns: []*fakeConn{conn}}})

	assert.ErrorIs(t, c.Send(map[string]string{"type": "ping"}), ErrNotConnected)

	require.NoError(t, c.Connect(context.Background(), "p1"))
	require.NoError(t, c.Send(map[string]string{"type": "ping"}))
	conn.mu.Lock()
	require.Len(t, conn.written, 1)
	assert.JSONEq(t, `{"type":"ping"}`, string(conn.written[0]))
	conn.mu.Unlock()
}

func TestClient_ListenerPanicIsIsolated(t *testing.T) {
	conn := newFakeConn()
	c := NewClient(Options{Clock: clock.NewMock(), Dialer: &fakeDialer{conns: []*fakeConn{conn}}})
	rec := &recorder{}
	c.Subscribe(func(string, protocol.Envelope) { panic("listener bug") })
	unsubscribe := c.Subscribe(rec.listen)

	require.NoError(t, c.Connect(context.Background(), "p1"))
	conn.frames <- []byte(`{"type":"LOG","message":"a"}`)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	unsubscribe()
	unsubscribe()
	conn.frames <- []byte(`{"type":"LOG","message":"b"}`)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 2)
}

func TestClient_GorillaRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan string, 1)
	requests := make(chan *http.Request, 4)
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- r
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"STATUS_UPDATE","status":"running"}`))
		_, msg, err := conn.ReadMessage()
		if err == nil {
			received <- string(msg)
		}
		<-release
	}))
	defer srv.Close()

	mock := clock.NewMock()
	c := NewClient(Options{
		BaseURL:              "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		Token:                "tok",
		MaxReconnectAttempts: 3,
		Clock:                mock,
	})
	rec := &recorder{}
	c.Subscribe(rec.listen)

	require.NoError(t, c.Connect(context.Background(), "proj-42"))
	first := <-requests
	assert.Equal(t, "Bearer tok", first.Header.Get("Authorization"))
	assert.Equal(t, "/ws/proj-42", first.URL.Path)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, protocol.TypeStatusUpdate, rec.snapshot()[1].EnvelopeType())

	require.NoError(t, c.Send(map[string]string{"type": "hello"}))
	select {
	case msg := <-received:
		assert.JSONEq(t, `{"type":"hello"}`, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the message")
	}

	// server drops the connection: disconnected status, then a reconnect on the next tick
	close(release)
	require.Eventually(t, func() bool {
		s := rec.statuses()
		return len(s) == 2 && !s[1] && c.State().ReconnectAttempts == 1
	}, 2*time.Second, 5*time.Millisecond)

	mock.Add(3 * time.Second)
	require.Eventually(t, func() bool { return c.State().Connected }, 2*time.Second, 5*time.Millisecond)
	s := rec.statuses()
	assert.True(t, s[len(s)-1])
	second := <-requests
	assert.Equal(t, "/ws/proj-42", second.URL.Path)

	c.Disconnect()
}
