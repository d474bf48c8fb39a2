// Package sse fans notifications out to open event streams.
package sse

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/midas-vault/midas-vault/internal/domain/notification"
)

// Hub tracks SSE clients by user. It implements notification.Publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*notification.SSEClient
	byUser  map[string]map[string]*notification.SSEClient
	dropped uint64
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*notification.SSEClient),
		byUser:  make(map[string]map[string]*notification.SSEClient),
		logger:  logger.With().Str("component", "sse").Logger(),
	}
}

func (h *Hub) Register(client *notification.SSEClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ClientID] = client
	conns := h.byUser[client.UserID]
	if conns == nil {
		conns = make(map[string]*notification.SSEClient)
		h.byUser[client.UserID] = conns
	}
	conns[client.ClientID] = client
}

// Unregister closes the client's channel. Safe to call twice.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	c.Close()
	delete(h.clients, clientID)
	if conns := h.byUser[c.UserID]; conns != nil {
		delete(conns, clientID)
		if len(conns) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped is the number of messages discarded because a client's buffer was full.
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// BroadcastToUser never blocks: a slow client loses the message.
func (h *Hub) BroadcastToUser(userID string, message *notification.SSEMessage) {
	h.mu.RLock()
	var missed uint64
	for _, c := range h.byUser[userID] {
		if !trySend(c, message) {
			missed++
			h.logger.Warn().Str("client_id", c.ClientID).Str("event", message.Event).Msg("sse buffer full, message dropped")
		}
	}
	h.mu.RUnlock()
	if missed > 0 {
		h.mu.Lock()
		h.dropped += missed
		h.mu.Unlock()
	}
}

func (h *Hub) SendToClient(clientID string, message *notification.SSEMessage) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c := h.clients[clientID]
	if c == nil {
		return notification.ErrClientNotFound
	}
	if !trySend(c, message) {
		return notification.ErrChannelFull
	}
	return nil
}

// Stop closes every client so open streams end.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
	h.byUser = make(map[string]map[string]*notification.SSEClient)
}

func trySend(c *notification.SSEClient, msg *notification.SSEMessage) bool {
	select {
	case c.MessageChan <- msg:
		return true
	default:
		return false
	}
}
