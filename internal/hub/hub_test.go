package hub

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripmap/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestBroadcastReachesSubscribers(t *testing.T) {
	h := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	watched := uuid.New()
	other := uuid.New()

	a := NewClient("a", 4)
	b := NewClient("b", 4)
	h.Register(a)
	h.Register(b)
	h.Subscribe(a, []uuid.UUID{watched})
	h.Subscribe(b, []uuid.UUID{other})

	h.Broadcast(domain.TripUpdate{
		Type:   domain.UpdateView,
		TripID: watched,
		View:   &domain.MapView{Path: []domain.Coordinate{{Lat: 1, Lng: 2}}},
	})

	msg := receive(t, a)
	assert.Equal(t, "view", msg.Type)
	payload := msg.Payload.(map[string]any)
	assert.Equal(t, watched.String(), payload["tripId"])

	select {
	case <-b.Send:
		t.Fatal("client b is not watching this trip")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	h := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	id := uuid.New()
	c := NewClient("c", 4)
	h.Register(c)
	h.Subscribe(c, []uuid.UUID{id})
	assert.True(t, c.watches(id))

	h.Unsubscribe(c, []uuid.UUID{id})
	assert.False(t, c.watches(id))
	assert.Empty(t, c.Trips())

	h.Broadcast(domain.TripUpdate{Type: domain.UpdateExpired, TripID: id})
	select {
	case <-c.Send:
		t.Fatal("unsubscribed client received an update")
	case <-time.After(50 * time.Millisecond):
	}
}

func isDone(c *Client) bool {
	select {
	case <-c.Done():
		return true
	default:
		return false
	}
}

func TestUnregisterStopsClient(t *testing.T) {
	h := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := NewClient("c", 1)
	h.Register(c)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, isDone(c))

	h.Unregister(c)
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, isDone(c))

	// Send stays open so late writers never panic.
	c.Send <- []byte("late")
}

func TestQueuedRegisterAndUnregisterKeepOrder(t *testing.T) {
	h := NewHub(testLogger())

	clients := make([]*Client, 16)
	for i := range clients {
		clients[i] = NewClient(uuid.NewString(), 1)
		h.Register(clients[i])
		h.Subscribe(clients[i], []uuid.UUID{uuid.New()})
		h.Unregister(clients[i])
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	require.Eventually(t, func() bool {
		for _, c := range clients {
			if !isDone(c) {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)

	assert.Zero(t, h.ClientCount())
	h.mu.RLock()
	assert.Empty(t, h.tripClients)
	h.mu.RUnlock()
}

func TestStoppedHubStopsClients(t *testing.T) {
	h := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	before := NewClient("before", 1)
	h.Register(before)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.True(t, isDone(before))

	after := NewClient("after", 1)
	h.Register(after)
	h.Unregister(after)
	assert.True(t, isDone(after))
	assert.Zero(t, h.ClientCount())
}

func TestEncodeUpdate(t *testing.T) {
	id := uuid.New()
	data, err := EncodeUpdate(domain.TripUpdate{Type: domain.UpdateExpired, TripID: id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"expired","payload":{"type":"expired","tripId":"`+id.String()+`"}}`, string(data))
}
