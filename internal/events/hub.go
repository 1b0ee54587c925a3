package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Hub errors.
var (
	// ErrHubClosed is returned by Publish after the hub has shut down.
	ErrHubClosed = errors.New("notification hub is closed")

	// ErrBroadcastBufferFull is returned when the broadcast queue is full.
	// Publishing is best-effort, so callers log this and move on.
	ErrBroadcastBufferFull = errors.New("broadcast buffer is full")
)

// Connection tuning, following the gorilla/websocket conventions.
const (
	// writeWait is the time allowed to write a message to a client.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from a client.
	pongWait = 60 * time.Second

	// pingPeriod is the interval between pings; must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound messages. Clients have no send contract
	// beyond connect/disconnect, so anything small is enough for control
	// traffic.
	maxMessageSize = 512

	// sendBufferSize is the per-client outbound queue. A client that falls
	// this far behind is dropped rather than blocking the hub.
	sendBufferSize = 64

	// broadcastBufferSize bounds the hub's inbound event queue.
	broadcastBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is one connected websocket peer.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of connected real-time clients and broadcasts task
// lifecycle events to all of them. It is constructed once at startup and
// passed by reference to request handlers; Run must be started in its own
// goroutine before clients connect.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	logger     *slog.Logger
}

// NewHub creates a Hub ready to Run.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, broadcastBufferSize),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "notification_hub")),
	}
}

// Run processes register/unregister/broadcast traffic until the context is
// canceled. On shutdown every client connection is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.logger.Debug("websocket client connected",
				slog.Int("client_count", len(h.clients)))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Debug("websocket client disconnected",
					slog.Int("client_count", len(h.clients)))
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Slow client: drop it instead of blocking everyone.
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("dropped slow websocket client",
						slog.Int("client_count", len(h.clients)))
				}
			}

		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.logger.Info("notification hub stopped")
			return
		}
	}
}

// Ensure Hub implements Publisher
var _ Publisher = (*Hub)(nil)

// Publish implements Publisher. The event is queued for broadcast to all
// connected clients; it never blocks the caller.
func (h *Hub) Publish(kind string, payload any) error {
	message, err := json.Marshal(Event{Kind: kind, Data: payload})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	select {
	case <-h.done:
		return ErrHubClosed
	case h.broadcast <- message:
		return nil
	default:
		return ErrBroadcastBufferFull
	}
}

// ServeWS upgrades an HTTP request to a websocket connection and registers
// the client with the hub. The connection is server-push only; inbound
// messages are read and discarded to service control frames.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket", slog.String("error", err.Error()))
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump discards client messages and keeps the connection's read
// deadline fresh via pong handling. It unregisters the client on any read
// error, including normal closes.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
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

// writePump forwards queued events to the connection and pings the client
// on a fixed interval.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
