package model

import (
	"encoding/json"
	"time"
)

// Room is a named conversation context shared by the user and a set of AI
// providers. Rooms are created server-side; the client never mutates one in
// place.
type Room struct {
	RoomID    string   `json:"room_id"`
	Title     string   `json:"title"`
	ActiveAIs []string `json:"active_ais"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// AuthorUser is the author value for messages written by the human user.
// Every other author value is an AI provider id (claude, gpt, gemini, ...).
const AuthorUser = "user"

// Message is one entry in a room timeline. Immutable once created.
type Message struct {
	Role         string   `json:"role"`
	Author       string   `json:"author"`
	Content      string   `json:"content"`
	Mentions     []string `json:"mentions,omitempty"`
	DiscussionID *int64   `json:"discussion_id,omitempty"`
	Timestamp    string   `json:"timestamp"`
}

// IsUser reports whether the message was written by the human user.
func (m Message) IsUser() bool { return m.Author == AuthorUser }

// Time parses the wire timestamp. The backend emits ISO 8601, with or
// without a zone designator depending on the serializer, so both layouts are
// accepted. The zero time is returned for anything else.
func (m Message) Time() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, m.Timestamp); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DiscussionStatus tags the lifecycle of a private AI discussion. Ongoing is
// the only non-terminal status; resolved and timeout are terminal.
type DiscussionStatus string

const (
	StatusOngoing  DiscussionStatus = "ongoing"
	StatusResolved DiscussionStatus = "resolved"
	StatusTimeout  DiscussionStatus = "timeout"
)

// Terminal reports whether the status admits no further transitions.
func (s DiscussionStatus) Terminal() bool {
	return s == StatusResolved || s == StatusTimeout
}

// Known reports whether the status is one of the enumerated values.
func (s DiscussionStatus) Known() bool {
	switch s {
	case StatusOngoing, StatusResolved, StatusTimeout:
		return true
	}
	return false
}

// DiscussionMessage is one exchange inside a private AI discussion.
type DiscussionMessage struct {
	AI      string `json:"ai"`
	Content string `json:"content"`
}

// Discussion is a private multi-AI sub-exchange attached to at most one
// timeline message via Message.DiscussionID. Consensus is set only when the
// status is resolved.
type Discussion struct {
	ID           int64               `json:"id"`
	Participants []string            `json:"participants"`
	Topic        string              `json:"topic"`
	Messages     []DiscussionMessage `json:"messages"`
	Consensus    string              `json:"consensus,omitempty"`
	Status       DiscussionStatus    `json:"status"`
	CreatedAt    string              `json:"created_at,omitempty"`
	ResolvedAt   string              `json:"resolved_at,omitempty"`
}

// EventNewMessages is the only channel event type the backend pushes today.
const EventNewMessages = "new_messages"

// ChannelEvent is the envelope for everything delivered on a room channel.
type ChannelEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewMessages is the payload of an EventNewMessages delta: the user message
// and its AI response as an atomic pair, plus the discussion the response
// spawned, if any.
type NewMessages struct {
	UserMessage Message     `json:"user_message"`
	AIMessage   Message     `json:"ai_message"`
	Discussion  *Discussion `json:"discussion,omitempty"`
}

// MessagePair returns the pair in timeline order.
func (n NewMessages) MessagePair() [2]Message {
	return [2]Message{n.UserMessage, n.AIMessage}
}
