// Package channel maintains the single live push channel bound to the
// active room. Rebinding closes the previous channel before opening the
// next, so at most one binding can ever deliver into the timeline.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"chika/internal/model"
)

// State is the channel lifecycle: Idle -> Connecting -> Open ->
// {Closed | Errored}. Closed and Errored are not retried automatically;
// the next bind happens on a room switch or a manual refresh.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	}
	return "unknown"
}

// Binding identifies one channel instance. Every event carries the binding
// it originated from, so consumers can detect and discard deliveries from
// a channel that has since been superseded by a room switch.
type Binding struct {
	ID     string
	RoomID string
}

// EventKind tags channel events.
type EventKind int

const (
	// KindOpened fires once the transport-level open succeeded.
	KindOpened EventKind = iota
	// KindDelta carries a new_messages payload.
	KindDelta
	// KindClosed fires when the transport closed without error.
	KindClosed
	// KindErrored fires on a transport error; real-time updates are off
	// until a new binding is made.
	KindErrored
)

// Event is one delivery from a channel binding.
type Event struct {
	Binding Binding
	Kind    EventKind
	Delta   *model.NewMessages
	Err     error
}

const (
	pongWait  = 60 * time.Second
	writeWait = 10 * time.Second
)

type liveBinding struct {
	Binding
	cancel context.CancelFunc

	mu   sync.Mutex
	conn *websocket.Conn
	dead bool
}

func (b *liveBinding) install(conn *websocket.Conn) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dead {
		return false
	}
	b.conn = conn
	return true
}

func (b *liveBinding) teardown() {
	b.mu.Lock()
	conn := b.conn
	b.dead = true
	b.mu.Unlock()
	b.cancel()
	if conn != nil {
		_ = conn.Close()
	}
}

// Manager owns the one live binding. Events for every binding it ever made
// are delivered on a single channel; consumers drop events whose binding is
// no longer current.
type Manager struct {
	mu      sync.Mutex
	wsBase  string
	dialer  *websocket.Dialer
	events  chan Event
	current *liveBinding
	state   State
}

// New builds a manager dialing against wsBase (e.g. "ws://localhost:8000").
func New(wsBase string) *Manager {
	return &Manager{
		wsBase: wsBase,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		events: make(chan Event, 32),
		state:  StateIdle,
	}
}

// Events is the single stream all bindings deliver into.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// State reports the lifecycle state of the current binding.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the live binding, if any.
func (m *Manager) Current() (Binding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Binding{}, false
	}
	return m.current.Binding, true
}

// Bind tears down any existing channel and opens a new one for roomID. The
// returned binding tags every event the new channel will deliver.
func (m *Manager) Bind(roomID string) Binding {
	ctx, cancel := context.WithCancel(context.Background())
	b := &liveBinding{
		Binding: Binding{ID: uuid.NewString(), RoomID: roomID},
		cancel:  cancel,
	}

	m.mu.Lock()
	prev := m.current
	m.current = b
	m.state = StateConnecting
	m.mu.Unlock()

	if prev != nil {
		prev.teardown()
	}

	go m.run(ctx, b)
	return b.Binding
}

// Close tears down the live binding, if any, and returns to StateIdle.
func (m *Manager) Close() {
	m.mu.Lock()
	b := m.current
	m.current = nil
	m.state = StateIdle
	m.mu.Unlock()
	if b != nil {
		b.teardown()
	}
}

func (m *Manager) run(ctx context.Context, b *liveBinding) {
	conn, _, err := m.dialer.DialContext(ctx, m.wsBase+"/ws/"+b.RoomID, nil)
	if err != nil {
		m.finish(b, Event{Binding: b.Binding, Kind: KindErrored, Err: err}, StateErrored)
		return
	}
	if !b.install(conn) {
		// Superseded while dialing.
		_ = conn.Close()
		return
	}

	m.setStateIfCurrent(b, StateOpen)
	m.emit(Event{Binding: b.Binding, Kind: KindOpened})

	conn.SetReadLimit(1024 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go pingLoop(ctx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				// Deliberate teardown from a rebind or Close; nothing to report.
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.finish(b, Event{Binding: b.Binding, Kind: KindClosed}, StateClosed)
			} else {
				m.finish(b, Event{Binding: b.Binding, Kind: KindErrored, Err: err}, StateErrored)
			}
			return
		}

		var envelope model.ChannelEvent
		if err := json.Unmarshal(data, &envelope); err != nil {
			continue
		}
		if envelope.Type != model.EventNewMessages {
			continue
		}
		var delta model.NewMessages
		if err := json.Unmarshal(envelope.Data, &delta); err != nil {
			m.emit(Event{Binding: b.Binding, Kind: KindErrored, Err: errors.New("malformed delta payload")})
			continue
		}
		m.emit(Event{Binding: b.Binding, Kind: KindDelta, Delta: &delta})
	}
}

func pingLoop(ctx context.Context, conn *websocket.Conn) {
	pingPeriod := (pongWait * 9) / 10
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func (m *Manager) setStateIfCurrent(b *liveBinding, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == b {
		m.state = s
	}
}

func (m *Manager) finish(b *liveBinding, ev Event, s State) {
	m.setStateIfCurrent(b, s)
	m.emit(ev)
}

func (m *Manager) emit(ev Event) {
	m.events <- ev
}
