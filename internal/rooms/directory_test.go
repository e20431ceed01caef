package rooms

import (
	"context"
	"errors"
	"testing"

	"chika/internal/model"
)

type fakeBackend struct {
	rooms     []model.Room
	listErr   error
	createErr error
	created   []model.Room
	nextID    int
}

func (f *fakeBackend) ListRooms(ctx context.Context) ([]model.Room, error) {
	return f.rooms, f.listErr
}

func (f *fakeBackend) CreateRoom(ctx context.Context, title string, activeAIs []string) (model.Room, error) {
	if f.createErr != nil {
		return model.Room{}, f.createErr
	}
	f.nextID++
	room := model.Room{RoomID: "r-" + string(rune('0'+f.nextID)), Title: title, ActiveAIs: activeAIs}
	f.created = append(f.created, room)
	return room, nil
}

func TestLoad_AutoCreatesDefaultRoomWhenEmpty(t *testing.T) {
	fb := &fakeBackend{}
	d := New(fb)

	rooms, err := d.Load(context.Background(), []string{"mock", "claude"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(rooms))
	}
	if rooms[0].Title != "Room 1" {
		t.Fatalf("expected default title Room 1, got %q", rooms[0].Title)
	}
	if len(fb.created) != 1 || len(fb.created[0].ActiveAIs) != 2 {
		t.Fatalf("expected auto-create seeded with provider selection, got %+v", fb.created)
	}
	active, ok := d.Active()
	if !ok || active.RoomID != rooms[0].RoomID {
		t.Fatalf("expected auto-created room active, got %+v ok=%v", active, ok)
	}
}

func TestLoad_SelectsFirstRoom(t *testing.T) {
	fb := &fakeBackend{rooms: []model.Room{{RoomID: "a", Title: "A"}, {RoomID: "b", Title: "B"}}}
	d := New(fb)

	if _, err := d.Load(context.Background(), nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	active, ok := d.Active()
	if !ok || active.RoomID != "a" {
		t.Fatalf("expected first room active, got %+v", active)
	}
	if len(fb.created) != 0 {
		t.Fatalf("expected no auto-create")
	}
}

func TestLoad_KeepsExistingSelection(t *testing.T) {
	fb := &fakeBackend{rooms: []model.Room{{RoomID: "a"}, {RoomID: "b"}}}
	d := New(fb)
	if _, err := d.Load(context.Background(), nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !d.Select("b") {
		t.Fatalf("Select failed")
	}
	if _, err := d.Load(context.Background(), nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	active, _ := d.Active()
	if active.RoomID != "b" {
		t.Fatalf("expected selection to survive reload, got %q", active.RoomID)
	}
}

func TestCreate_FailureLeavesDirectoryUnchanged(t *testing.T) {
	fb := &fakeBackend{rooms: []model.Room{{RoomID: "a"}}}
	d := New(fb)
	if _, err := d.Load(context.Background(), nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	fb.createErr = errors.New("boom")
	if _, err := d.Create(context.Background(), "New", []string{"mock"}); err == nil {
		t.Fatalf("expected error")
	}
	if len(d.Rooms()) != 1 {
		t.Fatalf("expected directory unchanged, got %d rooms", len(d.Rooms()))
	}
	active, _ := d.Active()
	if active.RoomID != "a" {
		t.Fatalf("expected active unchanged, got %q", active.RoomID)
	}
}

func TestCreate_AppendsAndActivates(t *testing.T) {
	fb := &fakeBackend{rooms: []model.Room{{RoomID: "a"}}}
	d := New(fb)
	if _, err := d.Load(context.Background(), nil); err != nil {
		t.Fatalf("Load: %v", err)
	}

	room, err := d.Create(context.Background(), "Second", []string{"mock"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(d.Rooms()) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(d.Rooms()))
	}
	active, _ := d.Active()
	if active.RoomID != room.RoomID {
		t.Fatalf("expected new room active")
	}
}

func TestSelect_UnknownRoom(t *testing.T) {
	d := New(&fakeBackend{})
	if d.Select("nope") {
		t.Fatalf("expected Select to fail for unknown room")
	}
}
