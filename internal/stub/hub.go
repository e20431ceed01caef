package stub

import "sync"

// Writer abstracts the websocket write side so the hub can be tested
// without a live connection.
type Writer interface {
	Write(message []byte) error
	Close() error
}

// Connection is one subscriber to a room's push channel.
type Connection struct {
	RoomID string
	Writer Writer
}

// Hub fans broadcast payloads out to every connection bound to a room.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*Connection]struct{}
}

func NewHub() *Hub {
	return &Hub{connections: make(map[string]map[*Connection]struct{})}
}

func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[conn.RoomID] == nil {
		h.connections[conn.RoomID] = make(map[*Connection]struct{})
	}
	h.connections[conn.RoomID][conn] = struct{}{}
}

func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.connections[conn.RoomID]
	if set == nil {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.connections, conn.RoomID)
	}
}

func (h *Hub) Broadcast(roomID string, message []byte) {
	h.mu.RLock()
	set := h.connections[roomID]
	conns := make([]*Connection, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	var failed []*Connection
	for _, c := range conns {
		if err := c.Writer.Write(message); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		_ = c.Writer.Close()
		h.Unregister(c)
	}
}
