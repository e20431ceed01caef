package stub

import (
	"testing"

	"chika/internal/model"
)

func TestStore_RoomCRUD(t *testing.T) {
	s := NewStore()

	room, err := s.CreateRoom("Room 1", []string{"mock"})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.RoomID == "" || room.Title != "Room 1" {
		t.Fatalf("unexpected room %+v", room)
	}

	list := s.ListRooms()
	if len(list) != 1 {
		t.Fatalf("expected 1 room, got %d", len(list))
	}

	got, ok := s.GetRoom(room.RoomID)
	if !ok || got.RoomID != room.RoomID {
		t.Fatalf("GetRoom failed")
	}

	if _, ok := s.GetRoom("missing"); ok {
		t.Fatalf("expected miss")
	}
}

func TestStore_CreateRoomValidates(t *testing.T) {
	s := NewStore()
	if _, err := s.CreateRoom("", []string{"mock"}); err == nil {
		t.Fatalf("expected error for missing title")
	}
	if _, err := s.CreateRoom("Room 1", nil); err == nil {
		t.Fatalf("expected error for missing active_ais")
	}
}

func TestStore_AppendPairKeepsOrder(t *testing.T) {
	s := NewStore()
	room, _ := s.CreateRoom("Room 1", []string{"mock"})

	user := model.Message{Role: "user", Author: "user", Content: "q"}
	ai := model.Message{Role: "assistant", Author: "mock", Content: "a"}
	if err := s.AppendPair(room.RoomID, user, ai); err != nil {
		t.Fatalf("AppendPair: %v", err)
	}

	msgs, err := s.Messages(room.RoomID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Author != "user" || msgs[1].Author != "mock" {
		t.Fatalf("unexpected messages %+v", msgs)
	}

	if err := s.AppendPair("missing", user, ai); err == nil {
		t.Fatalf("expected error for unknown room")
	}
}

func TestStore_DiscussionIDsIncrease(t *testing.T) {
	s := NewStore()
	room, _ := s.CreateRoom("Room 1", []string{"claude", "gpt"})

	d1, err := s.CreateDiscussion(room.RoomID, model.Discussion{Status: model.StatusResolved})
	if err != nil {
		t.Fatalf("CreateDiscussion: %v", err)
	}
	d2, _ := s.CreateDiscussion(room.RoomID, model.Discussion{Status: model.StatusOngoing})
	if d2.ID <= d1.ID {
		t.Fatalf("expected increasing ids, got %d then %d", d1.ID, d2.ID)
	}
	if d1.ResolvedAt == "" {
		t.Fatalf("expected resolved_at on terminal discussion")
	}
	if d2.ResolvedAt != "" {
		t.Fatalf("expected no resolved_at on ongoing discussion")
	}

	ds, err := s.Discussions(room.RoomID)
	if err != nil {
		t.Fatalf("Discussions: %v", err)
	}
	if len(ds) != 2 {
		t.Fatalf("expected 2 discussions, got %d", len(ds))
	}
}
