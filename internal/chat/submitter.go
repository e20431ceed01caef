// Package chat submits user messages and tracks the pending "typing"
// indicator until the channel delivers the resulting message pair.
package chat

import (
	"context"
	"errors"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// ErrEmptyMessage means the input trimmed to nothing. Callers treat
	// this as a silent no-op, not a user-visible failure.
	ErrEmptyMessage = errors.New("empty message")
	// ErrNoActiveRoom means there is nowhere to send to.
	ErrNoActiveRoom = errors.New("no active room")
	// ErrSendInFlight means a previous send has not completed yet
	// (single-flight per room).
	ErrSendInFlight = errors.New("send already in flight")
)

// Backend is the slice of the REST client the submitter needs.
type Backend interface {
	SendChat(ctx context.Context, roomID, content string) error
}

// Submitter posts sanitized user messages. No local message is ever
// inserted optimistically; the backend echoes the stored pair back over
// the channel, and the typing flag stays up until that delta is applied.
type Submitter struct {
	mu       sync.Mutex
	backend  Backend
	policy   *bluemonday.Policy
	inflight bool
	typing   bool
}

func New(backend Backend) *Submitter {
	return &Submitter{
		backend: backend,
		// Strip every tag and attribute. Content is rendered as rich
		// text later, so stored markup must never survive submission.
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize strips all markup from raw input and trims it.
func (s *Submitter) Sanitize(raw string) string {
	clean := s.policy.Sanitize(raw)
	// The policy entity-escapes plain text; undo that so "a & b" round-trips.
	return strings.TrimSpace(html.UnescapeString(clean))
}

// Send validates, sanitizes, and posts rawText to the backend. It fails
// fast when the input is empty, no room is active, or a send is already in
// flight. The typing flag goes up before the post and comes back down only
// on transport failure; on success it stays up until ClearTyping.
func (s *Submitter) Send(ctx context.Context, roomID, rawText string) error {
	if roomID == "" {
		return ErrNoActiveRoom
	}
	content := s.Sanitize(rawText)
	if content == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.inflight {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	s.inflight = true
	s.typing = true
	s.mu.Unlock()

	err := s.backend.SendChat(ctx, roomID, content)

	s.mu.Lock()
	s.inflight = false
	if err != nil {
		s.typing = false
	}
	s.mu.Unlock()
	return err
}

// Typing reports whether a response is still pending.
func (s *Submitter) Typing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing
}

// ClearTyping drops the indicator once the channel delta for the pending
// send has been fully applied.
func (s *Submitter) ClearTyping() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing = false
}

// InFlight reports whether a send is currently outstanding.
func (s *Submitter) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}
