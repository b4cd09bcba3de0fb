package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/airvoxel/internal/session"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local UI only
	},
}

type stateMessage struct {
	Type     string           `json:"type"`
	Snapshot session.Snapshot `json:"snapshot"`
}

type stateClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *stateClient) send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// StateHandler pushes every rendered snapshot to connected WebSocket
// clients. It is a render.Renderer; the pipeline drives it.
type StateHandler struct {
	mu      sync.RWMutex
	clients map[*stateClient]struct{}
	latest  []byte
}

// NewStateHandler creates a StateHandler with no clients.
func NewStateHandler() *StateHandler {
	return &StateHandler{clients: make(map[*stateClient]struct{})}
}

// Render broadcasts snap. Clients that fail to receive are dropped.
func (h *StateHandler) Render(snap session.Snapshot) error {
	msg, err := json.Marshal(stateMessage{Type: "state", Snapshot: snap})
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	h.mu.Lock()
	h.latest = msg
	clients := make([]*stateClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(msg); err != nil {
			h.remove(c)
			c.conn.Close()
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *StateHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. A new client receives the latest state immediately.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &stateClient{conn: conn}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	latest := h.latest
	h.mu.Unlock()
	defer h.remove(c)

	if latest != nil {
		if err := c.send(latest); err != nil {
			return
		}
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StateHandler) remove(c *stateClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}
