package hub

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/feedline-core/internal/infrastructure/config"
	"github.com/nerrad567/feedline-core/internal/infrastructure/logging"
)

// Defaults used when the config leaves a size unset.
const (
	defaultSendBuffer   = 256
	defaultQueueSize    = 1024
	defaultPingInterval = 30
	defaultPongTimeout  = 10
)

// Hub is the registry of live clients and the broadcast loop feeding them.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	metrics *metrics

	inbound chan Event
	seq     atomic.Uint64

	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

// New creates a hub. Call Run to start broadcasting.
func New(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	if cfg.SendBuffer < 1 {
		cfg.SendBuffer = defaultSendBuffer
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.PingInterval < 1 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.PongTimeout < 1 {
		cfg.PongTimeout = defaultPongTimeout
	}
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		metrics: newMetrics(),
		inbound: make(chan Event, cfg.QueueSize),
		clients: make(map[*Client]struct{}),
	}
}

// Run broadcasts queued events until ctx is cancelled, then disconnects
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case ev := <-h.inbound:
			h.broadcast(ev)
		}
	}
}

// Publish queues ev for broadcast. It never blocks; it returns false and
// counts a drop when the queue is full.
func (h *Hub) Publish(ev Event) bool {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	ev.seq = h.seq.Add(1)

	select {
	case h.inbound <- ev:
		h.metrics.published.Inc()
		return true
	default:
		h.metrics.dropped.WithLabelValues(dropQueueFull).Inc()
		h.logger.Warn("notification queue full, event dropped", "action", ev.Action)
		return false
	}
}

// Register adds c to the registry. c only receives events published after
// this call returns. Registering after shutdown closes c immediately.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.closeSend()
		return
	}
	c.joinedAt = h.seq.Load()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.clients.Set(float64(n))
	h.logger.Debug("websocket client connected", "user_id", c.userID, "clients", n)
}

// Unregister removes c and closes its outbound buffer. Calling it more
// than once is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, existed := h.clients[c]
	if existed {
		delete(h.clients, c)
		c.closeSend()
	}
	n := len(h.clients)
	h.mu.Unlock()

	if existed {
		h.metrics.clients.Set(float64(n))
		h.logger.Debug("websocket client disconnected", "user_id", c.userID, "clients", n)
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(ev Event) {
	data, err := json.Marshal(message{
		Type:      TypeEvent,
		Action:    ev.Action,
		Resource:  ev.Resource,
		Timestamp: formatTime(ev.Timestamp),
	})
	if err != nil {
		h.logger.Error("failed to marshal event", "action", ev.Action, "error", err)
		return
	}

	var delivered, dropped int

	// Sends happen under the read lock so no client can be torn down mid-iteration.
	h.mu.RLock()
	for c := range h.clients {
		if ev.seq <= c.joinedAt {
			continue
		}
		select {
		case c.send <- data:
			delivered++
		default:
			dropped++
		}
	}
	h.mu.RUnlock()

	h.metrics.delivered.Add(float64(delivered))
	if dropped > 0 {
		h.metrics.dropped.WithLabelValues(dropBufferFull).Add(float64(dropped))
		h.logger.Debug("slow clients skipped", "action", ev.Action, "dropped", dropped)
	}
}

// sendTo queues data for one client if it is still registered.
func (h *Hub) sendTo(c *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		c.closeSend()
		delete(h.clients, c)
	}
	h.mu.Unlock()

	h.metrics.clients.Set(0)
}
