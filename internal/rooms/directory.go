// Package rooms maintains the room directory and the single active-room
// pointer. Selecting a room is a pure state change; the channel layer
// observes it and rebinds.
package rooms

import (
	"context"
	"fmt"
	"sync"

	"chika/internal/model"
)

// Backend is the slice of the REST client the directory needs.
type Backend interface {
	ListRooms(ctx context.Context) ([]model.Room, error)
	CreateRoom(ctx context.Context, title string, activeAIs []string) (model.Room, error)
}

// Directory holds the known rooms and the active one. The directory never
// ends up empty after a successful Load: if the backend has no rooms, one
// default room is created before returning.
type Directory struct {
	mu      sync.Mutex
	backend Backend
	rooms   []model.Room
	active  string // room id, "" when nothing selected
}

func New(backend Backend) *Directory {
	return &Directory{backend: backend}
}

// Load fetches all rooms. When the backend returns none, exactly one
// default room is auto-created, titled from the running room count and
// seeded with the caller's current provider selection, and made active.
// Otherwise the first room becomes active if none is selected yet.
func (d *Directory) Load(ctx context.Context, defaultAIs []string) ([]model.Room, error) {
	listed, err := d.backend.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	if len(listed) == 0 {
		title := fmt.Sprintf("Room %d", len(listed)+1)
		room, err := d.backend.CreateRoom(ctx, title, defaultAIs)
		if err != nil {
			return nil, err
		}
		listed = []model.Room{room}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms = listed
	if d.active == "" || d.indexLocked(d.active) < 0 {
		d.active = listed[0].RoomID
	}
	return d.snapshotLocked(), nil
}

// Create posts a new room and, on success, appends it to the directory and
// makes it active. On failure the directory is left unchanged.
func (d *Directory) Create(ctx context.Context, title string, activeAIs []string) (model.Room, error) {
	if title == "" {
		d.mu.Lock()
		title = fmt.Sprintf("Room %d", len(d.rooms)+1)
		d.mu.Unlock()
	}

	room, err := d.backend.CreateRoom(ctx, title, activeAIs)
	if err != nil {
		return model.Room{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms = append(d.rooms, room)
	d.active = room.RoomID
	return room, nil
}

// Select makes the given room active. Returns false for unknown ids.
func (d *Directory) Select(roomID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexLocked(roomID) < 0 {
		return false
	}
	d.active = roomID
	return true
}

// Active returns the active room, if any.
func (d *Directory) Active() (model.Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexLocked(d.active)
	if i < 0 {
		return model.Room{}, false
	}
	return d.rooms[i], true
}

// Rooms returns a copy of the directory.
func (d *Directory) Rooms() []model.Room {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Directory) indexLocked(roomID string) int {
	for i, r := range d.rooms {
		if r.RoomID == roomID {
			return i
		}
	}
	return -1
}

func (d *Directory) snapshotLocked() []model.Room {
	out := make([]model.Room, len(d.rooms))
	copy(out, d.rooms)
	return out
}
