package stub

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chika/internal/model"
)

func newTestServer(t *testing.T) (*httptest.Server, Deps) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deps := Deps{
		Store:     NewStore(),
		OAuth:     NewOAuth(StateConfig{Secret: "secret", Expiry: time.Minute}),
		Hub:       NewHub(),
		Providers: []string{"mock", "claude", "gpt"},
	}
	srv := httptest.NewServer(NewRouter(deps))
	t.Cleanup(srv.Close)
	return srv, deps
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestRouter_RootListsProviders(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	info := decode[map[string]any](t, resp)
	ais, ok := info["available_ais"].([]any)
	if !ok || len(ais) != 3 {
		t.Fatalf("unexpected available_ais %v", info["available_ais"])
	}
}

func TestRouter_OAuthFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/oauth/authorize/anthropic")
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	authz := decode[map[string]string](t, resp)
	if authz["state"] == "" || authz["authorization_url"] == "" {
		t.Fatalf("unexpected authorize response %v", authz)
	}

	resp = postJSON(t, srv.URL+"/oauth/exchange-code/anthropic", map[string]string{
		"code":  "pasted-code",
		"state": authz["state"],
	})
	out := decode[map[string]bool](t, resp)
	if !out["success"] {
		t.Fatalf("expected success")
	}

	resp, err = http.Get(srv.URL + "/oauth/status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	status := decode[map[string][]string](t, resp)
	if len(status["authenticated_providers"]) != 1 {
		t.Fatalf("unexpected status %v", status)
	}
}

func TestRouter_ExchangeRejectsBadState(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/oauth/exchange-code/anthropic", map[string]string{
		"code":  "pasted-code",
		"state": "forged",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRouter_ChatBroadcastsPairOverWebSocket(t *testing.T) {
	srv, _ := newTestServer(t)

	room := decode[model.Room](t, postJSON(t, srv.URL+"/rooms", map[string]any{
		"title":      "Room 1",
		"active_ais": []string{"mock"},
	}))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + room.RoomID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	resp := postJSON(t, srv.URL+"/chat", map[string]string{
		"room_id": room.RoomID,
		"content": "hello there",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat returned %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var envelope model.ChannelEvent
	if err := conn.ReadJSON(&envelope); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if envelope.Type != model.EventNewMessages {
		t.Fatalf("unexpected event type %q", envelope.Type)
	}
	var delta model.NewMessages
	if err := json.Unmarshal(envelope.Data, &delta); err != nil {
		t.Fatalf("unmarshal delta: %v", err)
	}
	if delta.UserMessage.Content != "hello there" || delta.UserMessage.Author != "user" {
		t.Fatalf("unexpected user message %+v", delta.UserMessage)
	}
	if delta.AIMessage.Author != "mock" {
		t.Fatalf("unexpected ai message %+v", delta.AIMessage)
	}

	// History reflects the pair in order.
	histResp, err := http.Get(srv.URL + "/rooms/" + room.RoomID + "/messages")
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	msgs := decode[[]model.Message](t, histResp)
	if len(msgs) != 2 || !msgs[0].IsUser() || msgs[1].IsUser() {
		t.Fatalf("unexpected history %+v", msgs)
	}
}

func TestRouter_MentioningTwoAIsCreatesDiscussion(t *testing.T) {
	srv, _ := newTestServer(t)

	room := decode[model.Room](t, postJSON(t, srv.URL+"/rooms", map[string]any{
		"title":      "Room 1",
		"active_ais": []string{"claude", "gpt"},
	}))

	resp := postJSON(t, srv.URL+"/chat", map[string]string{
		"room_id": room.RoomID,
		"content": "@claude @gpt settle this",
	})
	delta := decode[model.NewMessages](t, resp)
	if delta.Discussion == nil {
		t.Fatalf("expected a discussion")
	}
	if delta.Discussion.Status != model.StatusResolved || delta.Discussion.Consensus == "" {
		t.Fatalf("unexpected discussion %+v", delta.Discussion)
	}
	if delta.AIMessage.DiscussionID == nil || *delta.AIMessage.DiscussionID != delta.Discussion.ID {
		t.Fatalf("ai message not linked to discussion")
	}

	histResp, err := http.Get(srv.URL + "/rooms/" + room.RoomID + "/discussions")
	if err != nil {
		t.Fatalf("discussions: %v", err)
	}
	ds := decode[[]model.Discussion](t, histResp)
	if len(ds) != 1 || ds[0].ID != delta.Discussion.ID {
		t.Fatalf("unexpected discussions %+v", ds)
	}
}

func TestRouter_ChatUnknownRoom(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := postJSON(t, srv.URL+"/chat", map[string]string{"room_id": "missing", "content": "hi"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRateLimiter_Window(t *testing.T) {
	now := time.Unix(0, 0)
	rl := NewRateLimiterWithNow(2, time.Minute, func() time.Time { return now })

	if !rl.Allow("ip") || !rl.Allow("ip") {
		t.Fatalf("expected first two allowed")
	}
	if rl.Allow("ip") {
		t.Fatalf("expected third denied")
	}

	now = now.Add(2 * time.Minute)
	if !rl.Allow("ip") {
		t.Fatalf("expected allowance after window reset")
	}
}
