package live

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
)

func mustEvent(t *testing.T, name string, payload interface{}) Event {
	t.Helper()
	ev, err := NewEvent(name, payload)
	require.NoError(t, err)
	return ev
}

func drain(s *Session) []Event {
	var evs []Event
	for {
		select {
		case ev := <-s.Events():
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func names(evs []Event) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Name)
	}
	return out
}

type failingBroker struct {
	calls int
}

func (b *failingBroker) Publish(context.Context, Envelope) error {
	b.calls++
	return errors.New("redis: connection refused")
}

type loopbackBroker struct {
	hub *Hub
}

func (b *loopbackBroker) Publish(_ context.Context, env Envelope) error {
	b.hub.Deliver(env)
	return nil
}

func TestHub_Routing(t *testing.T) {
	ctx := context.Background()
	h := NewHub(4, zap.NewNop())
	tab1 := h.Connect("fwd-a", domain.RoleForwarder)
	tab2 := h.Connect("fwd-a", domain.RoleForwarder)
	other := h.Connect("fwd-b", domain.RoleForwarder)
	shipper := h.Connect("cus-1", domain.RoleShipper)

	h.SendToUser(ctx, "fwd-a", mustEvent(t, EventUnreadCount, 3))
	h.SendToRole(ctx, domain.RoleForwarder, mustEvent(t, EventNewRequest, map[string]int{"requestId": 1}))

	assert.Equal(t, []string{EventUnreadCount, EventNewRequest}, names(drain(tab1)))
	assert.Equal(t, []string{EventUnreadCount, EventNewRequest}, names(drain(tab2)))
	assert.Equal(t, []string{EventNewRequest}, names(drain(other)))
	assert.Empty(t, drain(shipper))
}

func TestHub_GreetingComesFirst(t *testing.T) {
	h := NewHub(4, zap.NewNop())

	s := h.ConnectWithGreeting("cus-1", domain.RoleShipper, func(sessionID string) Event {
		return mustEvent(t, EventConnected, map[string]string{"sessionId": sessionID})
	})
	h.SendToUser(context.Background(), "cus-1", mustEvent(t, EventUnreadCount, 0))

	evs := drain(s)
	require.Len(t, evs, 2)
	assert.Equal(t, EventConnected, evs[0].Name)
	assert.JSONEq(t, `{"sessionId":"`+s.ID+`"}`, string(evs[0].Data))
}

func TestHub_FullBufferDropsEvents(t *testing.T) {
	h := NewHub(2, zap.NewNop())
	s := h.Connect("cus-1", domain.RoleShipper)

	ev := mustEvent(t, EventUnreadCount, 1)
	assert.Equal(t, 1, h.Deliver(Envelope{UserID: "cus-1", Event: ev}))
	assert.Equal(t, 1, h.Deliver(Envelope{UserID: "cus-1", Event: ev}))
	assert.Equal(t, 0, h.Deliver(Envelope{UserID: "cus-1", Event: ev}))
	assert.Len(t, drain(s), 2)
}

func TestHub_Disconnect(t *testing.T) {
	h := NewHub(4, zap.NewNop())
	s := h.Connect("cus-1", domain.RoleShipper)
	_, ok := h.Session("cus-1", s.ID)
	require.True(t, ok)

	h.Disconnect(s)
	h.Disconnect(s)

	assert.False(t, h.IsConnected("cus-1"))
	_, ok = h.Session("cus-1", s.ID)
	assert.False(t, ok)
	assert.False(t, s.Send(mustEvent(t, EventUnreadCount, 1)))
	select {
	case <-s.Done():
	default:
		t.Fatal("session done channel is still open")
	}
}

func TestHub_Broker(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers through broker", func(t *testing.T) {
		h := NewHub(4, zap.NewNop())
		h.SetBroker(&loopbackBroker{hub: h})
		s := h.Connect("cus-1", domain.RoleShipper)

		h.SendToUser(ctx, "cus-1", mustEvent(t, EventUnreadCount, 2))
		assert.Len(t, drain(s), 1)
	})

	t.Run("falls back to local delivery", func(t *testing.T) {
		h := NewHub(4, zap.NewNop())
		broker := &failingBroker{}
		h.SetBroker(broker)
		s := h.Connect("cus-1", domain.RoleShipper)

		h.SendToUser(ctx, "cus-1", mustEvent(t, EventUnreadCount, 2))
		assert.Equal(t, 1, broker.calls)
		assert.Len(t, drain(s), 1)
	})
}
