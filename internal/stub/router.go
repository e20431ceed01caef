package stub

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chika/internal/model"
)

// Deps wires the router's collaborators.
type Deps struct {
	Store     *Store
	OAuth     *OAuth
	Hub       *Hub
	Providers []string
}

const maxContentLength = 4000

type createRoomBody struct {
	Title     string   `json:"title"`
	ActiveAIs []string `json:"active_ais"`
}

type chatBody struct {
	RoomID  string `json:"room_id"`
	Content string `json:"content"`
}

type exchangeBody struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":          "chika-stub",
			"slogan":        "Utiliser dix IA sans chichi",
			"version":       "0.1.0",
			"available_ais": deps.Providers,
			"features": gin.H{
				"multi_ai_collaboration": true,
				"private_discussions":    true,
				"mentions":               true,
			},
		})
	})

	r.GET("/oauth/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"authenticated_providers": deps.OAuth.Authenticated()})
	})

	r.GET("/oauth/authorize/:provider", func(c *gin.Context) {
		provider := c.Param("provider")
		state, err := deps.OAuth.NewState(provider)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Unknown provider"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"authorization_url": fmt.Sprintf("https://auth.example.invalid/%s/authorize?state=%s", provider, state),
			"state":             state,
		})
	})

	r.POST("/oauth/exchange-code/:provider", func(c *gin.Context) {
		var body exchangeBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
			return
		}
		if !deps.OAuth.Exchange(c.Param("provider"), body.Code, body.State) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid code or state"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	roomLimiter := NewRateLimiter(5, time.Minute)
	chatLimiter := NewRateLimiter(10, time.Minute)

	r.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.Store.ListRooms())
	})

	r.POST("/rooms", rateLimitMiddleware(roomLimiter), func(c *gin.Context) {
		var body createRoomBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
			return
		}
		room, err := deps.Store.CreateRoom(strings.TrimSpace(body.Title), body.ActiveAIs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, room)
	})

	r.GET("/rooms/:id", func(c *gin.Context) {
		room, ok := deps.Store.GetRoom(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Room not found"})
			return
		}
		c.JSON(http.StatusOK, room)
	})

	r.GET("/rooms/:id/messages", func(c *gin.Context) {
		msgs, err := deps.Store.Messages(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Room not found"})
			return
		}
		c.JSON(http.StatusOK, msgs)
	})

	r.GET("/rooms/:id/discussions", func(c *gin.Context) {
		ds, err := deps.Store.Discussions(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Room not found"})
			return
		}
		c.JSON(http.StatusOK, ds)
	})

	r.POST("/chat", rateLimitMiddleware(chatLimiter), func(c *gin.Context) {
		var body chatBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request"})
			return
		}
		content := strings.TrimSpace(body.Content)
		if content == "" || len(content) > maxContentLength {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid content"})
			return
		}

		room, ok := deps.Store.GetRoom(body.RoomID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Room not found"})
			return
		}

		now := time.Now()
		user := model.Message{
			Role:      "user",
			Author:    model.AuthorUser,
			Content:   content,
			Timestamp: now.UTC().Format(time.RFC3339Nano),
		}
		ai, discussion := respond(room, content, now)

		if discussion != nil {
			stored, err := deps.Store.CreateDiscussion(room.RoomID, *discussion)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to store discussion"})
				return
			}
			discussion = &stored
			ai.DiscussionID = &stored.ID
		}

		if err := deps.Store.AppendPair(room.RoomID, user, ai); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to store messages"})
			return
		}

		payload := model.NewMessages{UserMessage: user, AIMessage: ai, Discussion: discussion}
		broadcast(deps.Hub, room.RoomID, payload)

		c.JSON(http.StatusOK, payload)
	})

	r.GET("/ws/:id", func(c *gin.Context) {
		serveWS(deps.Hub, c)
	})

	return r
}

func broadcast(h *Hub, roomID string, payload model.NewMessages) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	out, err := json.Marshal(model.ChannelEvent{Type: model.EventNewMessages, Data: data})
	if err != nil {
		return
	}
	h.Broadcast(roomID, out)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) Write(message []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.conn.WriteMessage(websocket.TextMessage, message)
}

func (w *wsWriter) Close() error {
	return w.conn.Close()
}

func serveWS(h *Hub, c *gin.Context) {
	roomID := c.Param("id")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	conn := &Connection{RoomID: roomID, Writer: &wsWriter{conn: ws}}
	h.Register(conn)
	defer func() {
		h.Unregister(conn)
		_ = ws.Close()
	}()

	ws.SetReadLimit(1024 * 1024)
	const pongWait = 60 * time.Second
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPingHandler(func(appData string) error {
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		deadline := time.Now().Add(10 * time.Second)
		return ws.WriteControl(websocket.PongMessage, []byte(appData), deadline)
	})

	for {
		_, _, err := ws.ReadMessage()
		if err != nil {
			return
		}
		// Clients only keep the connection alive; acknowledge and move on.
		ack, _ := json.Marshal(map[string]string{"type": "ack", "data": "received"})
		_ = conn.Writer.Write(ack)
	}
}
