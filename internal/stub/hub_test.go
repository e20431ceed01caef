package stub

import (
	"errors"
	"sync"
	"testing"
)

type recordingWriter struct {
	mu       sync.Mutex
	messages [][]byte
	fail     bool
	closed   bool
}

func (w *recordingWriter) Write(message []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("write failed")
	}
	w.messages = append(w.messages, message)
	return nil
}

func (w *recordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

func TestHub_BroadcastReachesOnlyTheRoom(t *testing.T) {
	h := NewHub()
	in := &recordingWriter{}
	out := &recordingWriter{}
	h.Register(&Connection{RoomID: "r1", Writer: in})
	h.Register(&Connection{RoomID: "r2", Writer: out})

	h.Broadcast("r1", []byte("hello"))

	if in.count() != 1 {
		t.Fatalf("expected delivery to r1 subscriber")
	}
	if out.count() != 0 {
		t.Fatalf("r2 subscriber must not receive r1 traffic")
	}
}

func TestHub_EvictsFailedWriters(t *testing.T) {
	h := NewHub()
	bad := &recordingWriter{fail: true}
	good := &recordingWriter{}
	h.Register(&Connection{RoomID: "r1", Writer: bad})
	h.Register(&Connection{RoomID: "r1", Writer: good})

	h.Broadcast("r1", []byte("one"))
	if !bad.closed {
		t.Fatalf("expected failed writer closed")
	}

	h.Broadcast("r1", []byte("two"))
	if good.count() != 2 {
		t.Fatalf("healthy writer should keep receiving, got %d", good.count())
	}
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	h := NewHub()
	w := &recordingWriter{}
	conn := &Connection{RoomID: "r1", Writer: w}
	h.Register(conn)
	h.Unregister(conn)

	h.Broadcast("r1", []byte("gone"))
	if w.count() != 0 {
		t.Fatalf("unregistered connection must not receive")
	}
}
