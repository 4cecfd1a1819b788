package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Presence tracks which users are connected. Backed by a shared Redis
// set so presence holds up across server instances, instead of a
// process-local socket map.
type Presence interface {
	SetOnline(ctx context.Context, userID uint64) error
	SetOffline(ctx context.Context, userID uint64) error
	IsOnline(ctx context.Context, userID uint64) (bool, error)
}

// Envelope is the wire format for every event pushed over a socket.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub tracks live websocket clients per user and delivers targeted
// events. A user may hold several concurrent connections.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uint64]map[*Client]struct{}
	presence Presence
	log      *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(presence Presence, log *slog.Logger) *Hub {
	return &Hub{
		clients:  make(map[uint64]map[*Client]struct{}),
		presence: presence,
		log:      log,
	}
}

// Client is one websocket connection owned by a user.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uint64
	send   chan []byte
}

// ServeWS upgrades an HTTP request to a websocket connection and
// registers the client with the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID uint64) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	client := &Client{
		hub:    h,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
	}
	h.add(client)

	go client.writePump()
	go client.readPump()
	return nil
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	first := len(h.clients[c.userID]) == 0
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*Client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
	h.mu.Unlock()

	if first && h.presence != nil {
		if err := h.presence.SetOnline(context.Background(), c.userID); err != nil {
			h.log.Warn("presence set online failed", "user", c.userID, "err", err)
		}
	}
	h.log.Debug("ws client connected", "user", c.userID)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.userID]; ok {
		if _, ok := set[c]; ok {
			delete(set, c)
			close(c.send)
		}
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	last := h.clients[c.userID] == nil
	h.mu.Unlock()

	if last && h.presence != nil {
		if err := h.presence.SetOffline(context.Background(), c.userID); err != nil {
			h.log.Warn("presence set offline failed", "user", c.userID, "err", err)
		}
	}
	h.log.Debug("ws client disconnected", "user", c.userID)
}

// Push delivers an event to every live connection of one user and
// reports whether at least one connection received it.
func (h *Hub) Push(recipientID uint64, eventType string, payload interface{}) bool {
	data, err := json.Marshal(Envelope{Type: eventType, Payload: payload})
	if err != nil {
		h.log.Error("ws marshal failed", "type", eventType, "err", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for c := range h.clients[recipientID] {
		select {
		case c.send <- data:
			delivered = true
		default:
			// slow consumer; drop the event rather than block the hub
		}
	}
	return delivered
}

// readPump drains inbound frames until the connection closes. Clients
// send over the REST surface; the socket is receive-only.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
