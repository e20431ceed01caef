// Package timeline holds the in-memory ordered log of messages for the
// active room, merged from the REST snapshot and channel deltas, plus the
// registry of private AI discussions attached to it.
package timeline

import (
	"sync"

	"chika/internal/model"
)

// Pair is the atomic {user, ai} message pair a channel delta carries. The
// user message is never inserted optimistically; both entries land together
// in this order, which is what keeps the timeline free of duplicate user
// messages.
type Pair struct {
	User model.Message
	AI   model.Message
}

// Store is the timeline for one room at a time. Hydration replaces the
// whole log; deltas append to its tail. Existing entries are never
// reordered.
type Store struct {
	mu     sync.RWMutex
	roomID string
	msgs   []model.Message
}

func NewStore() *Store {
	return &Store{}
}

// Reset installs the hydrated history for roomID, discarding whatever room
// the store held before.
func (s *Store) Reset(roomID string, msgs []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
	s.msgs = make([]model.Message, len(msgs))
	copy(s.msgs, msgs)
}

// Append adds the pair to the tail in pair order.
func (s *Store) Append(p Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, p.User, p.AI)
}

// RoomID reports which room the store currently holds.
func (s *Store) RoomID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID
}

// Messages returns a copy of the timeline.
func (s *Store) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Len returns the number of timeline entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.msgs)
}
