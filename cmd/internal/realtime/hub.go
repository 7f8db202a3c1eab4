package realtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"gqlsocial/cmd/internal/social"
)

// Hub tracks connected feed sessions and fans events out to them.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

var _ social.Publisher = (*Hub)(nil)

// NewHub constructs an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:     log,
		clients: make(map[string]*Client),
	}
}

// Join registers a client for fanout.
func (h *Hub) Join(c *Client) {
	if c == nil || c.SessionID == "" {
		return
	}

	h.mu.Lock()
	h.clients[c.SessionID] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.log.Info("feed.client.join", "session_id", c.SessionID, "user_id", c.UserID, "clients", n)
}

// Leave removes a session and then signals it to stop.
func (h *Hub) Leave(sessionID string) {
	if sessionID == "" {
		return
	}

	h.mu.Lock()
	c := h.clients[sessionID]
	delete(h.clients, sessionID)
	n := len(h.clients)
	h.mu.Unlock()

	if c == nil {
		return
	}
	c.Close()
	h.log.Info("feed.client.leave", "session_id", sessionID, "user_id", c.UserID, "clients", n)
}

// Publish implements social.Publisher. It never blocks on slow clients.
func (h *Hub) Publish(ctx context.Context, ev social.Event) {
	msg := MessageFromEvent(ev)

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if c.offer(msg) {
			h.delivered.Add(1)
			continue
		}
		h.dropped.Add(1)
		h.log.DebugContext(ctx, "feed.event.dropped", "session_id", c.SessionID, "event_id", msg.ID)
	}
}

// Clients returns the number of connected sessions.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Delivered counts events queued to clients since start.
func (h *Hub) Delivered() uint64 { return h.delivered.Load() }

// Dropped counts events skipped because a client queue was full.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
