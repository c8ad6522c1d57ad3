package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/live"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/presence"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return testNow }

type env struct {
	store    *storage.MemoryStorage
	hub      *live.Hub
	presence *presence.Tracker
	svc      *Service
}

func newEnv() *env {
	e := &env{
		store:    storage.NewMemoryStorage(clock),
		hub:      live.NewHub(32, zap.NewNop()),
		presence: presence.NewTracker(),
	}
	e.svc = NewService(e.store, e.hub, e.presence, clock, zap.NewNop())
	return e
}

func drain(s *live.Session) []live.Event {
	var evs []live.Event
	for {
		select {
		case ev := <-s.Events():
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func eventNames(evs []live.Event) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Name)
	}
	return out
}

func lastUnread(t *testing.T, evs []live.Event) int64 {
	t.Helper()
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Name == live.EventUnreadCount {
			var n int64
			require.NoError(t, json.Unmarshal(evs[i].Data, &n))
			return n
		}
	}
	t.Fatal("no unreadCount event")
	return 0
}

func TestService_Send(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	s := e.hub.Connect("cus-1", domain.RoleShipper)

	require.NoError(t, e.svc.Send(ctx, "cus-1", "A new offer arrived for 'Furniture'.", "/cus/cusRequest"))

	evs := drain(s)
	assert.Equal(t, []string{live.EventNotification, live.EventUnreadCount}, eventNames(evs))
	var view View
	require.NoError(t, json.Unmarshal(evs[0].Data, &view))
	assert.Equal(t, "A new offer arrived for 'Furniture'.", view.Message)
	assert.Equal(t, "2025-03-10 09:30", view.CreatedAt)
	assert.Equal(t, int64(1), lastUnread(t, evs))

	list, err := e.svc.ListUnread(ctx, "cus-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, view.ID, list[0].ID)
}

func TestService_ObservedSurfaceIsStoredRead(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	s := e.hub.Connect("fwd-a", domain.RoleForwarder)
	e.presence.Open("fwd-a", s.ID, "/fwd/my-offers")

	require.NoError(t, e.svc.Send(ctx, "fwd-a", "Your offer was accepted.", "/fwd/my-offers"))

	assert.Empty(t, drain(s))
	count, err := e.svc.UnreadCount(ctx, "fwd-a")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_RolledBackNotificationIsNotPushed(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	s := e.hub.Connect("cus-1", domain.RoleShipper)

	err := e.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		require.NoError(t, e.svc.Notify(ctx, tx, "cus-1", "never", "/cus/cusRequest"))
		return domain.Errorf(domain.ErrCapacityExceeded, "container full")
	})

	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Empty(t, drain(s))
	count, err := e.svc.UnreadCount(ctx, "cus-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_MarkRead(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, e.svc.Send(ctx, "cus-1", msg, "/cus/cusRequest"))
	}
	s := e.hub.Connect("cus-1", domain.RoleShipper)
	list, err := e.svc.ListUnread(ctx, "cus-1")
	require.NoError(t, err)
	require.Len(t, list, 3)

	require.NoError(t, e.svc.MarkRead(ctx, "cus-1", list[0].ID))
	require.NoError(t, e.svc.MarkRead(ctx, "cus-1", list[0].ID))
	assert.Equal(t, int64(2), lastUnread(t, drain(s)))

	err = e.svc.MarkRead(ctx, "fwd-a", list[1].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	changed, err := e.svc.MarkAllRead(ctx, "cus-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)
	assert.Equal(t, int64(0), lastUnread(t, drain(s)))

	changed, err = e.svc.MarkAllRead(ctx, "cus-1")
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestService_OnChatMessage(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	s := e.hub.Connect("cus-1", domain.RoleShipper)

	assert.False(t, e.svc.OnChatMessage(ctx, "cus-1", "42"))
	evs := drain(s)
	require.Len(t, evs, 1)
	assert.Equal(t, live.EventChatUnread, evs[0].Name)
	assert.JSONEq(t, `{"roomId":"42"}`, string(evs[0].Data))

	e.presence.Open("cus-1", s.ID, ChatSurface("42"))
	assert.True(t, e.svc.OnChatMessage(ctx, "cus-1", "42"))
	assert.Empty(t, drain(s))
}
