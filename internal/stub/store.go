// Package stub is a development backend implementing the Chika REST and
// websocket contract in memory, so the client can run and be integration
// tested without the real orchestrator.
package stub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"chika/internal/model"
)

// Store keeps rooms, their timelines, and their discussions in memory.
type Store struct {
	mu sync.RWMutex

	roomsByID     map[string]model.Room
	roomOrder     []string
	messages      map[string][]model.Message
	discussions   map[string][]model.Discussion
	discussionSeq int64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		roomsByID:   make(map[string]model.Room),
		messages:    make(map[string][]model.Message),
		discussions: make(map[string][]model.Discussion),
		now:         time.Now,
	}
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func (s *Store) CreateRoom(title string, activeAIs []string) (model.Room, error) {
	if title == "" {
		return model.Room{}, errors.New("missing title")
	}
	if len(activeAIs) == 0 {
		return model.Room{}, errors.New("missing active_ais")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room := model.Room{
		RoomID:    uuid.NewString(),
		Title:     title,
		ActiveAIs: append([]string(nil), activeAIs...),
		CreatedAt: s.timestamp(),
		UpdatedAt: s.timestamp(),
	}
	s.roomsByID[room.RoomID] = room
	s.roomOrder = append(s.roomOrder, room.RoomID)
	return room, nil
}

func (s *Store) ListRooms() []model.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Room, 0, len(s.roomOrder))
	for _, id := range s.roomOrder {
		result = append(result, s.roomsByID[id])
	}
	return result
}

func (s *Store) GetRoom(roomID string) (model.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.roomsByID[roomID]
	return room, ok
}

// AppendPair stores the user message and its AI response atomically, in
// that order, updating the room's timestamp.
func (s *Store) AppendPair(roomID string, user, ai model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.roomsByID[roomID]
	if !ok {
		return errors.New("room not found")
	}
	s.messages[roomID] = append(s.messages[roomID], user, ai)
	room.UpdatedAt = s.timestamp()
	s.roomsByID[roomID] = room
	return nil
}

func (s *Store) Messages(roomID string) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.roomsByID[roomID]; !ok {
		return nil, errors.New("room not found")
	}
	msgs := s.messages[roomID]
	result := make([]model.Message, len(msgs))
	copy(result, msgs)
	return result, nil
}

// CreateDiscussion assigns the next discussion id and stores the entry.
func (s *Store) CreateDiscussion(roomID string, d model.Discussion) (model.Discussion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roomsByID[roomID]; !ok {
		return model.Discussion{}, errors.New("room not found")
	}
	s.discussionSeq++
	d.ID = s.discussionSeq
	d.CreatedAt = s.timestamp()
	if d.Status.Terminal() {
		d.ResolvedAt = s.timestamp()
	}
	s.discussions[roomID] = append(s.discussions[roomID], d)
	return d, nil
}

func (s *Store) Discussions(roomID string) ([]model.Discussion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.roomsByID[roomID]; !ok {
		return nil, errors.New("room not found")
	}
	ds := s.discussions[roomID]
	result := make([]model.Discussion, len(ds))
	copy(result, ds)
	return result, nil
}
