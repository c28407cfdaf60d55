package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Connection is one live websocket session. The owning handler wires
// OnMessage before calling Start; every inbound frame is handed to it.
type Connection struct {
	ID       string
	UserID   uint
	Email    string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
	LastPing time.Time
	IsAlive  bool

	// OnMessage receives each inbound text frame. OnClose fires once when
	// the connection is unregistered from the hub.
	OnMessage func(data []byte)
	OnClose   func()

	mu     sync.RWMutex
	closed bool
}

// markClosed records that the hub has unregistered the connection and closed
// its send queue. Once set it never clears.
func (c *Connection) markClosed() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Connection) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Connection) alive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.IsAlive
}

func (c *Connection) setAlive(v bool) {
	c.mu.Lock()
	c.IsAlive = v
	c.mu.Unlock()
}

func newUpgrader(cfg *Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			// origin policy belongs to the deployment proxy
			return true
		},
		EnableCompression: cfg.EnableCompression,
	}
}

// Upgrade turns an HTTP request into a Connection bound to the given user.
// The connection is not registered until Start is called, so the caller can
// attach handlers first.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request, userID uint, email string) (*Connection, error) {
	upgrader := newUpgrader(h.config)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	if h.config.EnableCompression {
		conn.EnableWriteCompression(true)
	}

	return &Connection{
		ID:       "conn_" + uuid.NewString(),
		UserID:   userID,
		Email:    email,
		Conn:     conn,
		Send:     make(chan []byte, h.config.MessageBufferSize),
		Hub:      h,
		LastPing: time.Now(),
		IsAlive:  true,
	}, nil
}

// Start registers the connection with the hub and launches the read and
// write pumps.
func (c *Connection) Start() {
	c.Hub.register <- c
	go c.writePump()
	go c.readPump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(int64(c.Hub.config.MaxMessageSize))
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ConnectionTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.LastPing = time.Now()
		c.mu.Unlock()
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ConnectionTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("websocket read error on %s: %v", c.ID, err)
			}
			break
		}
		if c.OnMessage != nil {
			c.OnMessage(message)
		}
	}
}

func (c *Connection) writePump() {
	interval := c.Hub.config.HeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(time.Duration(float64(interval) * 0.9))
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			// flush whatever else is already queued
			n := len(c.Send)
			for i := 0; i < n; i++ {
				_, _ = w.Write([]byte{'\n'})
				_, _ = w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON queues one message for this connection, dropping it when the
// buffer is full rather than blocking the caller.
func (c *Connection) SendJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return fmt.Errorf("send buffer full on %s", c.ID)
	}
}

// Close tears the underlying socket down; the read pump then unregisters the
// connection from the hub.
func (c *Connection) Close() {
	c.Conn.Close()
}
