// Package ws fans battle events out over websocket connections. Delivery is
// best-effort at-most-once: a failed write drops the connection, never the
// state transition that produced the event.
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// defaultWriteTimeout bounds how long a single frame may sit in a stalled
// peer's socket before the write fails and the client is dropped.
const defaultWriteTimeout = 10 * time.Second

// Envelope is the wire frame for every outbound event: the room topic the
// payload belongs to, or a targeted frame with an empty topic.
type Envelope struct {
	Topic   string `json:"topic,omitempty"`
	Payload any    `json:"payload"`
}

type Client struct {
	sessionID string
	conn      *websocket.Conn
	mu        sync.Mutex // serializes writes to conn
}

func (c *Client) write(data []byte, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type Hub struct {
	log          zerolog.Logger
	writeTimeout time.Duration

	mu       sync.RWMutex
	rooms    map[string]map[*Client]bool
	sessions map[string]*Client
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:          log.With().Str("component", "ws").Logger(),
		writeTimeout: defaultWriteTimeout,
		rooms:        make(map[string]map[*Client]bool),
		sessions:     make(map[string]*Client),
	}
}

// Register attaches a connection under its session id. The returned handle
// is passed to Subscribe/Remove.
func (h *Hub) Register(sessionID string, conn *websocket.Conn) *Client {
	c := &Client{sessionID: sessionID, conn: conn}
	h.mu.Lock()
	h.sessions[sessionID] = c
	h.mu.Unlock()
	h.log.Debug().Str("session_id", sessionID).Msg("client connected")
	return c
}

// Subscribe adds the client to a room's broadcast set.
func (h *Hub) Subscribe(roomID string, c *Client) {
	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
	h.mu.Unlock()
}

// Unsubscribe detaches the client from one room without closing it.
func (h *Hub) Unsubscribe(roomID string, c *Client) {
	h.mu.Lock()
	if subs, ok := h.rooms[roomID]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()
}

// Remove drops the client from every room and closes the connection.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	delete(h.sessions, c.sessionID)
	for roomID, subs := range h.rooms {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()
	c.conn.Close()
	h.log.Debug().Str("session_id", c.sessionID).Msg("client disconnected")
}

// PublishToRoom sends the payload to every subscriber of the room under the
// given topic suffix.
func (h *Hub) PublishToRoom(roomID, topic string, payload any) {
	data, err := json.Marshal(Envelope{Topic: topic, Payload: payload})
	if err != nil {
		h.log.Error().Err(err).Str("topic", topic).Msg("marshal event failed")
		return
	}

	h.mu.RLock()
	subs := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	for _, c := range subs {
		if err := c.write(data, h.writeTimeout); err != nil {
			h.log.Debug().Err(err).Str("session_id", c.sessionID).Msg("write failed, dropping client")
			h.Remove(c)
		}
	}
}

// PublishToSession sends the payload to exactly one session, if connected.
func (h *Hub) PublishToSession(sessionID string, payload any) {
	data, err := json.Marshal(Envelope{Payload: payload})
	if err != nil {
		h.log.Error().Err(err).Msg("marshal reply failed")
		return
	}

	h.mu.RLock()
	c, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := c.write(data, h.writeTimeout); err != nil {
		h.log.Debug().Err(err).Str("session_id", sessionID).Msg("write failed, dropping client")
		h.Remove(c)
	}
}
