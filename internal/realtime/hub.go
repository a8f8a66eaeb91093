// Package realtime pushes small JSON notifications to connected browsers
// over websockets. It is a convenience layer only: every event describes
// a change that is already committed to the database, and a client that
// misses one simply sees the change on its next fetch.
package realtime

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types pushed to clients.
const (
	EventMessageNew      = "message:new"
	EventRequestNew      = "request:new"
	EventRequestAccepted = "request:accepted"
	EventRequestRejected = "request:rejected"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// Event is the frame written to the socket.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan Event
	once   sync.Once
	done   chan struct{}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub tracks the open connections of each user. One user may have
// several tabs open, so each id maps to a set.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub returns an empty hub. allowedOrigin mirrors CORS_ORIGIN; "*"
// accepts any browser origin.
func NewHub(logger *slog.Logger, allowedOrigin string) *Hub {
	h := &Hub{
		clients: make(map[string]map[*client]struct{}),
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
	return h
}

// Serve upgrades the request and keeps the connection registered under
// userID until either side closes it. It blocks for the connection's
// lifetime; authentication must already have happened.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{userID: userID, conn: conn, send: make(chan Event, sendBuffer), done: make(chan struct{})}
	h.add(c)
	defer h.remove(c)

	go c.writeLoop(h.logger)
	c.readLoop()
	return nil
}

// Publish queues ev for every connection of the given users. A client
// whose buffer is full loses the event rather than stalling the caller.
func (h *Hub) Publish(userIDs []string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]bool, len(userIDs))
	for _, uid := range userIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		for c := range h.clients[uid] {
			select {
			case c.send <- ev:
			case <-c.done:
			default:
				h.logger.Warn("realtime: dropped event for slow client",
					slog.String("user_id", uid), slog.String("type", ev.Type))
			}
		}
	}
}

// Connected reports how many sockets userID currently has open.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	c.close()
	h.mu.Lock()
	if set, ok := h.clients[c.userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

// readLoop discards client frames; it exists to process pongs and to
// notice when the peer goes away.
func (c *client) readLoop() {
	c.conn.SetReadLimit(512)
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

func (c *client) writeLoop(logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				logger.Debug("realtime: write failed", slog.String("user_id", c.userID), slog.Any("err", err))
				c.close()
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				_ = c.conn.Close()
				return
			}
		}
	}
}
