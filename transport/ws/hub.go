package ws

import (
	"log/slog"
	"sync"

	"github.com/xraph/rampart/rpc"
)

// Hub tracks live sockets and fans topic publications out to subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{clients: make(map[*client]struct{}), logger: logger}
}

// Publish notifies every connection currently subscribed to topic and
// returns how many were notified. Subscribers whose send buffer is full
// miss the publication.
func (h *Hub) Publish(topic string, data any) int {
	msg := rpc.NewNotification(topic, data)
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if !c.conn.Subscribed(topic) {
			continue
		}
		if !c.offer(msg) {
			h.logger.Warn("ws: dropped publication",
				slog.String("conn_id", c.conn.ID()),
				slog.String("topic", topic),
			)
			continue
		}
		n++
	}
	return n
}

// Len returns the number of live sockets.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every live socket.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.close()
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("ws: connection opened", slog.String("conn_id", c.conn.ID()))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	h.logger.Debug("ws: connection closed", slog.String("conn_id", c.conn.ID()))
}
