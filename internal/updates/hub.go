// Package updates tells installed web clients about new releases. A release
// moves through three signals: update available, offline ready and update
// applied. Connected clients receive them over a websocket; others poll.
package updates

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/digiplay/digiplay-server/internal/utils"
)

// Event types
const (
	EventUpdateAvailable = "update_available"
	EventOfflineReady    = "offline_ready"
	EventUpdateApplied   = "update_applied"
)

// Event is one message written to clients
type Event struct {
	Type      string `json:"type"`
	Version   string `json:"version,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ConnectedClients tracks open update streams.
var ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "digiplay",
	Subsystem: "updates",
	Name:      "connected_clients",
	Help:      "Open websocket update streams.",
})

// message is an event for one owner, or for everyone when ownerID is empty
type message struct {
	ownerID string
	event   Event
}

// Hub maintains the set of active clients and broadcasts events to them.
type Hub struct {
	// Registered clients by owner (parent) id
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}

	mu     sync.Mutex
	logger *utils.Logger
}

func NewHub(logger *utils.Logger) *Hub {
	if logger == nil {
		logger = utils.NopLogger()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 64),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is done,
// then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for ownerID, clients := range h.clients {
				for client := range clients {
					h.drop(ownerID, client)
				}
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.OwnerID]; !ok {
				h.clients[client.OwnerID] = make(map[*Client]bool)
			}
			h.clients[client.OwnerID][client] = true
			h.mu.Unlock()
			ConnectedClients.Inc()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.OwnerID][client]; ok {
				h.drop(client.OwnerID, client)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for ownerID, clients := range h.clients {
				if msg.ownerID != "" && msg.ownerID != ownerID {
					continue
				}
				for client := range clients {
					select {
					case client.send <- msg.event:
					default:
						// Slow client: its buffer is full.
						h.logger.Warn("dropping slow update client", "owner", ownerID)
						h.drop(ownerID, client)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes a client and closes its send channel. h.mu must be held.
func (h *Hub) drop(ownerID string, client *Client) {
	clients := h.clients[ownerID]
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, ownerID)
	}
	ConnectedClients.Dec()
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast sends an event to every client
func (h *Hub) Broadcast(eventType, version string) {
	h.send(message{event: newEvent(eventType, version)})
}

// Notify sends an event to the clients of one owner
func (h *Hub) Notify(ownerID, eventType, version string) {
	h.send(message{ownerID: ownerID, event: newEvent(eventType, version)})
}

func (h *Hub) send(msg message) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// ClientCount returns the number of clients of ownerID, or of everyone when
// ownerID is empty.
func (h *Hub) ClientCount(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ownerID != "" {
		return len(h.clients[ownerID])
	}
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

func newEvent(eventType, version string) Event {
	return Event{Type: eventType, Version: version, Timestamp: time.Now().UnixMilli()}
}
