package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 30 * time.Second
	pingPeriod   = 25 * time.Second
	sendTimeout  = 2 * time.Second
	eventTimeout = 30 * time.Second
	maxMessage   = 4096
)

// Client is one WebSocket connection. Events are handled one at a time in
// arrival order on the read pump.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Hub  *Hub

	send      chan []byte
	quit      chan struct{}
	closeOnce sync.Once
	done      chan struct{}

	mu       sync.Mutex
	playerID string

	log *slog.Logger
}

func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	id := uuid.NewString()
	return &Client{
		ID:   id,
		Conn: conn,
		Hub:  hub,
		send: make(chan []byte, 64),
		quit: make(chan struct{}),
		done: make(chan struct{}),
		log:  hub.log.With("connection_id", id),
	}
}

// Run blocks until the connection is gone
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// PlayerID is the player this connection joined as, if any
func (c *Client) PlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

func (c *Client) bind(playerID string) (previous string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	previous, c.playerID = c.playerID, playerID
	return previous
}

//read
func (c *Client) readPump() {
	defer func() {
		c.Close()
		c.Hub.disconnect(c)
		close(c.done)
	}()

	c.Conn.SetReadLimit(maxMessage)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read error", "error", err)
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		c.Hub.handle(ctx, c, msg)
		cancel()
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.log.Debug("write error", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.quit:
			// flush what was queued before the close
			for len(c.send) > 0 {
				if err := c.write(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(kind, data)
}

// Emit queues an event for the write pump
func (c *Client) Emit(event string, payload any) {
	data, err := json.Marshal(outbound{Type: event, Payload: payload})
	if err != nil {
		c.log.Error("marshal event", "event", event, "error", err)
		return
	}

	select {
	case c.send <- data:
	case <-c.quit:
	case <-time.After(sendTimeout):
		c.log.Warn("send timeout, event dropped", "event", event)
	}
}

// Close asks the write pump to flush and close the connection
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.quit) })
}

// Done is closed once the connection has been torn down
func (c *Client) Done() <-chan struct{} {
	return c.done
}
