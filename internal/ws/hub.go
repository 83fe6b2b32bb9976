package ws

import (
	"context"
	"log/slog"
	"sync"

	"mines_wager/internal/service"
)

// Hub tracks live connections and routes their events to the engine
type Hub struct {
	engine *service.Engine
	log    *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(engine *service.Engine, log *slog.Logger) *Hub {
	return &Hub{
		engine:  engine,
		log:     log,
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	c.log.Debug("connection registered")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// kick closes a connection whose session moved to another connection
func (h *Hub) kick(connectionID, playerID string) {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	// the old connection must not tear the session down on close
	if c.PlayerID() == playerID {
		c.bind("")
	}
	c.Emit(eventName(EventError, playerID), ErrorPayload{Message: "session resumed on another connection"})
	c.Close()
}

// disconnect runs once per connection after its read pump exits
func (h *Hub) disconnect(c *Client) {
	h.unregister(c)

	playerID := c.bind("")
	if playerID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	if err := h.engine.Disconnect(ctx, playerID, c.ID); err != nil {
		c.log.Warn("disconnect teardown failed", "player_id", playerID, "error", err)
	}
}

// Shutdown closes every connection and waits for their teardown
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}

	for _, c := range clients {
		select {
		case <-c.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.log.Info("all connections closed", "count", len(clients))
	return nil
}
