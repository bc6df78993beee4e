package services

import (
	"encoding/json"
	"sync"

	"github.com/MakuD3v/Edu-Party-Mayhem/utils/logger"
)

// Broadcaster is the session engine's view of the connection registry.
type Broadcaster interface {
	Broadcast(code string, msg any)
}

// Hub maps a session code to its live connections and fans broadcasts out
// to them. Register/Unregister/Broadcast are safe under concurrent
// connect/disconnect; the recipient set is snapshotted under the lock so a
// connection closing mid-broadcast never corrupts iteration.
type Hub struct {
	mu      sync.RWMutex
	lobbies map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{lobbies: make(map[string]map[*Client]bool)}
}

func (h *Hub) Register(code string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.lobbies[code] == nil {
		h.lobbies[code] = make(map[*Client]bool)
	}
	h.lobbies[code][c] = true
}

// Unregister removes the connection; the last one out removes the lobby
// entry entirely.
func (h *Hub) Unregister(code string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.lobbies[code]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.lobbies, code)
		}
	}
}

// Broadcast marshals msg once and enqueues it to every connection
// registered under code at call time. A full or closing recipient is
// skipped and logged; it never aborts delivery to the rest.
func (h *Hub) Broadcast(code string, msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		logger.Errorf("[Hub %s] marshal broadcast: %v", code, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.lobbies[code] {
		h.enqueue(code, c, b)
	}
}

// SendTo delivers msg to a single connection, same failure tolerance as
// Broadcast.
func (h *Hub) SendTo(code string, c *Client, msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		logger.Errorf("[Hub %s] marshal send: %v", code, err)
		return
	}
	h.enqueue(code, c, b)
}

func (h *Hub) enqueue(code string, c *Client, b []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warnf("[Hub %s] recovered send to user %d: %v", code, c.userID, r)
		}
	}()

	select {
	case c.send <- b:
	default:
		logger.Warnf("[Hub %s] dropping msg to user %d (slow consumer)", code, c.userID)
	}
}

// Count reports the number of live connections for a code.
func (h *Hub) Count(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.lobbies[code])
}
