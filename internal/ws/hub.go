// Package ws pushes navigation snapshots and notices to connected UI
// shells over websocket.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/opshub/console/internal/logx"
	"github.com/opshub/console/internal/metrics"
	"github.com/opshub/console/internal/notify"
)

// Event topics. Clients are subscribed to both on connect.
const (
	TopicNavigation = "navigation"
	TopicNotice     = "notice"
)

// Event is the message sent to websocket subscribers.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub manages the lifecycle of websocket clients and fans events out to
// subscribers. It is safe for concurrent use.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	mu         sync.RWMutex

	snapMu     sync.RWMutex
	navigation []byte

	metrics *metrics.Metrics
	logger  zerolog.Logger
}

type broadcastMsg struct {
	topic string
	data  []byte
}

// NewHub allocates a Hub. Call Run in a goroutine to start the event loop.
// m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan broadcastMsg, 256),
		metrics:    m,
		logger:     logx.Component("ws"),
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled, closing
// every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.observe()
			h.mu.Unlock()
			h.logger.Debug().Str("client", client.ID).Str("user", client.UserID).Msg("client registered")

			h.snapMu.RLock()
			snap := h.navigation
			h.snapMu.RUnlock()
			if snap != nil && client.IsSubscribed(TopicNavigation) {
				select {
				case client.send <- snap:
				default:
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			h.observe()
			h.mu.Unlock()
			h.logger.Debug().Str("client", client.ID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				if client.IsSubscribed(msg.topic) {
					select {
					case client.send <- msg.data:
					default:
						// Slow consumer: drop the message to avoid blocking.
					}
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
			}
			h.observe()
			h.mu.Unlock()
			return
		}
	}
}

// observe must be called with h.mu held.
func (h *Hub) observe() {
	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(len(h.clients)))
	}
}

// Publish encodes an event and enqueues it for every client subscribed to
// its type. Navigation events are also kept as the snapshot sent to
// clients that connect later.
func (h *Hub) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error().Err(err).Str("type", ev.Type).Msg("failed to marshal event")
		return
	}
	if ev.Type == TopicNavigation {
		h.snapMu.Lock()
		h.navigation = data
		h.snapMu.Unlock()
	}
	select {
	case h.broadcast <- broadcastMsg{topic: ev.Type, data: data}:
	default:
		h.logger.Warn().Str("type", ev.Type).Msg("broadcast queue full, event dropped")
	}
}

// PublishNavigation broadcasts a navigation snapshot.
func (h *Hub) PublishNavigation(nav interface{}) {
	h.Publish(Event{Type: TopicNavigation, Data: nav})
}

// Notify implements notify.Notifier by broadcasting the notice.
func (h *Hub) Notify(_ context.Context, n notify.Notice) {
	h.Publish(Event{Type: TopicNotice, Data: n})
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register enqueues a new client for addition to the hub.
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister enqueues a client for removal from the hub.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}
