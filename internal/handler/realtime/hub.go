package realtime

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/huynhducanh/portfolio/backend/internal/logging"
	"github.com/huynhducanh/portfolio/backend/internal/metrics"
	"github.com/huynhducanh/portfolio/backend/internal/model/chat"
)

const (
	sendQueueSize  = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 << 10
)

// client is one websocket connection. Only writePump writes to conn.
type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// enqueue never blocks; a full queue drops the event.
func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Hub tracks open websocket connections and delivers outbound events.
// It implements the relay emitter.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	total   atomic.Int64
	logger  zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		logger:  logging.WithComponent(logger, "hub"),
	}
}

// Emit queues event for connectionID. Unknown or closed connections are
// ignored.
func (h *Hub) Emit(connectionID string, event chat.Outbound) {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", event.Type).Msg("failed to encode event")
		return
	}

	if !c.enqueue(data) {
		metrics.DroppedEvents.Inc()
		h.logger.Warn().Str("connection_id", connectionID).Str("type", event.Type).Msg("send queue full, dropping event")
	}
}

// Broadcast queues event for every open connection.
func (h *Hub) Broadcast(event chat.Outbound) {
	for _, c := range h.snapshot() {
		out := event
		out.ConnectionID = c.id
		data, err := json.Marshal(out)
		if err != nil {
			h.logger.Error().Err(err).Str("type", event.Type).Msg("failed to encode event")
			return
		}
		if !c.enqueue(data) {
			metrics.DroppedEvents.Inc()
		}
	}
}

// CloseAll closes every connection after its queued events are flushed.
func (h *Hub) CloseAll() {
	clients := h.snapshot()
	for _, c := range clients {
		c.close()
	}
	if len(clients) > 0 {
		h.logger.Info().
			Int("connections", len(clients)).
			Int64("total_connections", h.TotalConnections()).
			Msg("closed all websocket connections")
	}
}

// Len returns the number of open connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConnections counts connections accepted since start.
func (h *Hub) TotalConnections() int64 {
	return h.total.Load()
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.total.Add(1)
	metrics.OpenConnections.Set(float64(n))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if current, ok := h.clients[c.id]; ok && current == c {
		delete(h.clients, c.id)
	}
	n := len(h.clients)
	h.mu.Unlock()

	c.close()
	metrics.OpenConnections.Set(float64(n))
}

func (h *Hub) snapshot() []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}

// writePump serialises all writes to the connection and keeps it alive
// with pings. On close it flushes what is queued and sends a close frame.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			if err := h.write(c, websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := h.write(c, websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			h.flush(c)
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing connection"))
			return
		}
	}
}

func (h *Hub) flush(c *client) {
	for {
		select {
		case data := <-c.send:
			if err := h.write(c, websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (h *Hub) write(c *client, messageType int, data []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		h.logger.Debug().Err(err).Str("connection_id", c.id).Msg("websocket write failed")
		return err
	}
	return nil
}
