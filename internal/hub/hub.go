package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"tripmap/internal/domain"
)

// Client is one websocket connection. Send is never closed; Done is closed
// once the hub has dropped the client.
type Client struct {
	ID   string
	Send chan []byte

	trips map[uuid.UUID]struct{}
	mu    sync.RWMutex

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:    id,
		Send:  make(chan []byte, bufferSize),
		trips: make(map[uuid.UUID]struct{}),
		done:  make(chan struct{}),
	}
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) stop() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) watches(tripID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.trips[tripID]
	return ok
}

func (c *Client) addTrips(ids []uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.trips[id] = struct{}{}
	}
}

func (c *Client) removeTrips(ids []uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.trips, id)
	}
}

func (c *Client) Trips() []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(c.trips))
	for id := range c.trips {
		ids = append(ids, id)
	}
	return ids
}

// clientEvent keeps register and unregister of one client in order.
type clientEvent struct {
	client *Client
	add    bool
}

// Hub fans trip updates out to the websocket clients watching each trip.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]struct{}
	tripClients map[uuid.UUID]map[*Client]struct{}

	events    chan clientEvent
	broadcast chan domain.TripUpdate
	stopped   chan struct{}

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		tripClients: make(map[uuid.UUID]map[*Client]struct{}),
		events:      make(chan clientEvent, 32),
		broadcast:   make(chan domain.TripUpdate, 256),
		stopped:     make(chan struct{}),
		logger:      logger.With("component", "hub"),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.stopped)
			h.closeAllClients()
			return

		case ev := <-h.events:
			if ev.add {
				h.addClient(ev.client)
			} else {
				h.removeClient(ev.client)
			}

		case update := <-h.broadcast:
			h.fanout(update)
		}
	}
}

func (h *Hub) Subscribe(client *Client, tripIDs []uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.addTrips(tripIDs)

	for _, id := range tripIDs {
		if h.tripClients[id] == nil {
			h.tripClients[id] = make(map[*Client]struct{})
		}
		h.tripClients[id][client] = struct{}{}
	}
}

func (h *Hub) Unsubscribe(client *Client, tripIDs []uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.removeTrips(tripIDs)
	h.dropSubscriptions(client, tripIDs)
}

// Broadcast queues an update without blocking. Updates are dropped when the
// queue is full.
func (h *Hub) Broadcast(update domain.TripUpdate) {
	select {
	case h.broadcast <- update:
	default:
		h.logger.Warn("broadcast channel full, dropping update", "trip_id", update.TripID, "type", update.Type)
	}
}

// Register and Unregister are applied in call order. Once Run has returned
// they only stop the client.
func (h *Hub) Register(client *Client) {
	h.send(clientEvent{client: client, add: true})
}

func (h *Hub) Unregister(client *Client) {
	h.send(clientEvent{client: client})
}

func (h *Hub) send(ev clientEvent) {
	select {
	case <-h.stopped:
		ev.client.stop()
		return
	default:
	}

	select {
	case h.events <- ev:
	case <-h.stopped:
		ev.client.stop()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Message is the envelope of every server-sent websocket frame.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func EncodeUpdate(update domain.TripUpdate) ([]byte, error) {
	return json.Marshal(Message{
		Type:    string(update.Type),
		Payload: update,
	})
}

func (h *Hub) fanout(update domain.TripUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.tripClients[update.TripID]
	if !ok {
		return
	}

	data, err := EncodeUpdate(update)
	if err != nil {
		h.logger.Error("failed to encode update", "trip_id", update.TripID, "error", err)
		return
	}

	for client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Debug("client send buffer full", "client_id", client.ID)
		}
	}
}

func (h *Hub) dropSubscriptions(client *Client, tripIDs []uuid.UUID) {
	for _, id := range tripIDs {
		if h.tripClients[id] != nil {
			delete(h.tripClients[id], client)
			if len(h.tripClients[id]) == 0 {
				delete(h.tripClients, id)
			}
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client registered", "client_id", client.ID, "total", total)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropSubscriptions(client, client.Trips())
	client.stop()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	h.logger.Debug("client unregistered", "client_id", client.ID, "total", len(h.clients))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.stop()
	}
	h.clients = make(map[*Client]struct{})
	h.tripClients = make(map[uuid.UUID]map[*Client]struct{})
}
