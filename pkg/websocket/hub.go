package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"SafeSignal/pkg/metrics"

	"github.com/sirupsen/logrus"
)

// Hub tracks open connections and per-alert subscription channels. One
// channel exists per alert id; every subscriber of a channel receives each
// frame published to it, in publish order.
type Hub struct {
	connections map[string]*Connection
	// channel name -> connection id -> connection
	channels map[string]map[string]*Connection

	register   chan *Connection
	unregister chan *Connection

	connectionCount int64
	config          *Config

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(config *Config) *Hub {
	if config == nil {
		config = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	hub := &Hub{
		connections: make(map[string]*Connection),
		channels:    make(map[string]map[string]*Connection),
		register:    make(chan *Connection, 256),
		unregister:  make(chan *Connection, 256),
		config:      config,
		ctx:         ctx,
		cancel:      cancel,
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	ticker := time.NewTicker(h.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case conn := <-h.register:
			h.registerConnection(conn)
		case conn := <-h.unregister:
			h.unregisterConnection(conn)
		case <-ticker.C:
			h.checkHeartbeats()
		}
	}
}

func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if atomic.LoadInt64(&h.connectionCount) >= h.config.MaxConnections {
		conn.Conn.Close()
		logrus.Warnf("connection limit reached (%d), rejecting %s", h.config.MaxConnections, conn.ID)
		return
	}

	h.connections[conn.ID] = conn
	atomic.AddInt64(&h.connectionCount, 1)
	metrics.ActiveConnections.Inc()

	logrus.Infof("websocket connection registered: %s user=%d total=%d",
		conn.ID, conn.UserID, atomic.LoadInt64(&h.connectionCount))
}

func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.connections[conn.ID]; !exists {
		return
	}
	delete(h.connections, conn.ID)
	atomic.AddInt64(&h.connectionCount, -1)
	metrics.ActiveConnections.Dec()

	// closing a connection always drops every subscription it held
	for channel, conns := range h.channels {
		if _, ok := conns[conn.ID]; ok {
			delete(conns, conn.ID)
			metrics.MonitorSubscribers.Dec()
			if len(conns) == 0 {
				delete(h.channels, channel)
			}
		}
	}

	conn.markClosed()
	close(conn.Send)
	if conn.OnClose != nil {
		conn.OnClose()
	}
	logrus.Infof("websocket connection unregistered: %s total=%d",
		conn.ID, atomic.LoadInt64(&h.connectionCount))
}

// Subscribe adds the connection to a channel and reports whether it is now
// subscribed. Safe to call more than once. A connection the hub has already
// unregistered is refused: its send queue is closed, and a peer that drops
// while the caller is mid-authorization must not land back in a channel
// nothing will ever clean up.
func (h *Hub) Subscribe(conn *Connection, channel string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn.isClosed() {
		logrus.Warnf("refusing subscription of closed connection %s to %s", conn.ID, channel)
		return false
	}

	if h.channels[channel] == nil {
		h.channels[channel] = make(map[string]*Connection)
	}
	if _, ok := h.channels[channel][conn.ID]; !ok {
		h.channels[channel][conn.ID] = conn
		metrics.MonitorSubscribers.Inc()
	}
	return true
}

// Unsubscribe removes the connection from a channel. Idempotent: removing a
// connection that is not subscribed is a no-op.
func (h *Hub) Unsubscribe(conn *Connection, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.channels[channel]
	if !ok {
		return
	}
	if _, ok := conns[conn.ID]; !ok {
		return
	}
	delete(conns, conn.ID)
	metrics.MonitorSubscribers.Dec()
	if len(conns) == 0 {
		delete(h.channels, channel)
	}
}

// Broadcast serializes v once and delivers it to every subscriber of the
// channel. Delivery per subscriber is non-blocking; a laggard gets frames
// dropped (or is disconnected) rather than stalling the publisher.
func (h *Hub) Broadcast(channel string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logrus.Errorf("broadcast marshal failed: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.channels[channel] {
		if conn.alive() {
			h.trySend(conn, data, func() {
				logrus.Warnf("channel %s subscriber %s send buffer full", channel, conn.ID)
			})
		}
	}
}

// SubscriberCount reports how many connections listen on a channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) ConnectionCount() int64 {
	return atomic.LoadInt64(&h.connectionCount)
}

func (h *Hub) checkHeartbeats() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now()
	for _, conn := range h.connections {
		conn.mu.RLock()
		lastPing := conn.LastPing
		conn.mu.RUnlock()
		if now.Sub(lastPing) > h.config.ConnectionTimeout {
			logrus.Warnf("connection %s heartbeat timeout, closing", conn.ID)
			conn.setAlive(false)
			conn.Conn.Close()
		}
	}
}

func (h *Hub) trySend(conn *Connection, data []byte, onDrop func()) {
	if h.config.DropOnFull {
		select {
		case conn.Send <- data:
		default:
			onDrop()
			if h.config.CloseOnBackpressure {
				conn.Conn.Close()
			}
		}
		return
	}

	timeout := h.config.SendTimeout
	if timeout <= 0 {
		timeout = 50 * time.Millisecond
	}
	select {
	case conn.Send <- data:
	case <-time.After(timeout):
		onDrop()
		if h.config.CloseOnBackpressure {
			conn.Conn.Close()
		}
	}
}

// Close shuts the hub down and closes every connection.
func (h *Hub) Close() {
	h.cancel()

	h.mu.Lock()
	for _, conn := range h.connections {
		conn.Conn.Close()
	}
	h.mu.Unlock()

	logrus.Info("websocket hub closed")
}
