package chat

import (
	"context"
	"errors"
	"testing"
)

type fakeBackend struct {
	calls   []string
	err     error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeBackend) SendChat(ctx context.Context, roomID, content string) error {
	f.calls = append(f.calls, roomID+"|"+content)
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		<-f.release
	}
	return f.err
}

func TestSend_WhitespaceOnlyIsNoOp(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb)

	if err := s.Send(context.Background(), "r-1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(fb.calls) != 0 {
		t.Fatalf("expected no network call")
	}
	if s.Typing() {
		t.Fatalf("expected typing flag untouched")
	}
}

func TestSend_NoActiveRoom(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb)
	if err := s.Send(context.Background(), "", "hello"); !errors.Is(err, ErrNoActiveRoom) {
		t.Fatalf("expected ErrNoActiveRoom, got %v", err)
	}
	if len(fb.calls) != 0 {
		t.Fatalf("expected no network call")
	}
}

func TestSend_StripsMarkup(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb)

	if err := s.Send(context.Background(), "r-1", `<script>alert(1)</script>hi <b>there</b> & co`); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(fb.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(fb.calls))
	}
	if fb.calls[0] != "r-1|hi there & co" {
		t.Fatalf("unexpected payload %q", fb.calls[0])
	}
}

func TestSend_MarkupOnlyBecomesEmpty(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb)
	if err := s.Send(context.Background(), "r-1", "<b></b>"); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(fb.calls) != 0 {
		t.Fatalf("expected no network call")
	}
}

func TestSend_SingleFlight(t *testing.T) {
	fb := &fakeBackend{entered: make(chan struct{}), release: make(chan struct{})}
	s := New(fb)

	done := make(chan error, 1)
	go func() { done <- s.Send(context.Background(), "r-1", "first") }()
	<-fb.entered

	if err := s.Send(context.Background(), "r-1", "second"); !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight, got %v", err)
	}

	close(fb.release)
	if err := <-done; err != nil {
		t.Fatalf("first send: %v", err)
	}
	if len(fb.calls) != 1 {
		t.Fatalf("expected exactly 1 call, got %d", len(fb.calls))
	}
}

func TestSend_TypingClearsOnTransportFailure(t *testing.T) {
	fb := &fakeBackend{err: errors.New("connection refused")}
	s := New(fb)

	if err := s.Send(context.Background(), "r-1", "hello"); err == nil {
		t.Fatalf("expected error")
	}
	if s.Typing() {
		t.Fatalf("expected typing cleared on failure")
	}
	if s.InFlight() {
		t.Fatalf("expected inflight cleared")
	}
}

func TestSend_TypingStaysUntilDeltaApplied(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb)

	if err := s.Send(context.Background(), "r-1", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !s.Typing() {
		t.Fatalf("expected typing set after successful post")
	}
	if s.InFlight() {
		t.Fatalf("expected inflight cleared after post")
	}

	s.ClearTyping()
	if s.Typing() {
		t.Fatalf("expected typing cleared")
	}
}
