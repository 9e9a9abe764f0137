package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"tripmap/internal/domain"
	"tripmap/internal/hub"
	"tripmap/internal/observability"
	"tripmap/internal/planner"
)

const (
	clientBufferSize = 64
	pingInterval     = 30 * time.Second
	writeTimeout     = 5 * time.Second
)

type WSHandler struct {
	hub     *hub.Hub
	planner *planner.Service
	logger  *slog.Logger
}

func NewWSHandler(h *hub.Hub, p *planner.Service, logger *slog.Logger) *WSHandler {
	return &WSHandler{hub: h, planner: p, logger: logger.With("handler", "ws")}
}

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubscribePayload is used by both subscribe and unsubscribe.
type SubscribePayload struct {
	TripIDs []string `json:"tripIds"`
}

type SnapshotPayload struct {
	Trips []domain.TripUpdate `json:"trips"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	client := hub.NewClient(uuid.New().String(), clientBufferSize)
	h.hub.Register(client)

	observability.WSConnections.Inc()
	defer observability.WSConnections.Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("invalid message format", "client_id", client.ID, "error", err)
			continue
		}

		switch msg.Type {
		case "subscribe":
			ids := h.parseTripIDs(client, msg.Payload)
			if len(ids) > 0 {
				h.hub.Subscribe(client, ids)
				h.sendSnapshot(ctx, client, ids)
			}

		case "unsubscribe":
			ids := h.parseTripIDs(client, msg.Payload)
			if len(ids) > 0 {
				h.hub.Unsubscribe(client, ids)
			}

		case "ping":
			h.send(client, hub.Message{Type: "pong"})
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-client.Done():
			// Unblocks readLoop when the hub shuts down first.
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return

		case msg := <-client.Send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) parseTripIDs(client *hub.Client, raw json.RawMessage) []uuid.UUID {
	var payload SubscribePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(payload.TripIDs))
	for _, s := range payload.TripIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			h.logger.Debug("ignoring invalid trip id", "client_id", client.ID, "trip_id", s)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// sendSnapshot sends the current view of every requested trip that exists.
func (h *WSHandler) sendSnapshot(ctx context.Context, client *hub.Client, ids []uuid.UUID) {
	payload := SnapshotPayload{Trips: make([]domain.TripUpdate, 0, len(ids))}
	for _, id := range ids {
		trip, err := h.planner.Trip(ctx, id)
		if err != nil || trip.View == nil {
			continue
		}
		payload.Trips = append(payload.Trips, domain.TripUpdate{
			Type:   domain.UpdateView,
			TripID: id,
			View:   trip.View,
		})
	}

	h.send(client, hub.Message{Type: "snapshot", Payload: payload})
}

func (h *WSHandler) send(client *hub.Client, msg hub.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case <-client.Done():
	case client.Send <- data:
	default:
		h.logger.Debug("client send buffer full", "client_id", client.ID, "type", msg.Type)
	}
}
