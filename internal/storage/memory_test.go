package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestStorage(t *testing.T) *MemoryStorage {
	t.Helper()
	s := NewMemoryStorage(func() time.Time { return testNow })
	err := s.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.CreateContainer(ctx, &repository.Container{
			ID:            "SEAU0000001",
			OwnerID:       "fwd-a",
			TotalCapacity: 10,
			Status:        repository.ContainerRegistered,
		})
	})
	require.NoError(t, err)
	return s
}

func TestMemoryStorage_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	boom := errors.New("boom")
	hookRan := false

	err := s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.AdjustCapacity(ctx, "SEAU0000001", repository.CapacityDelta{Bidding: 4}))
		require.NoError(t, tx.CreateRequest(ctx, &repository.CargoRequest{Status: repository.RequestOpen}))
		tx.AfterCommit(func(context.Context) { hookRan = true })
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, hookRan)
	c, err := s.Container("SEAU0000001")
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.BiddingCbm)
	_, err = s.GetRequest(ctx, 1)
	assert.ErrorIs(t, err, repository.ErrObjectNotFound)
}

func TestMemoryStorage_AfterCommitOutlivesCallerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newTestStorage(t)

	var hookErr error
	err := s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		tx.AfterCommit(func(ctx context.Context) { hookErr = ctx.Err() })
		cancel()
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, hookErr)
}

func TestMemoryStorage_AdjustCapacity(t *testing.T) {
	tests := []struct {
		name        string
		deltas      []repository.CapacityDelta
		wantBidding float64
		wantErr     bool
	}{
		{
			name:        "fills exactly",
			deltas:      []repository.CapacityDelta{{Bidding: 4}, {Bidding: 6}},
			wantBidding: 10,
		},
		{
			name:    "overfills",
			deltas:  []repository.CapacityDelta{{Bidding: 4}, {Confirmed: 6.5}},
			wantErr: true,
		},
		{
			name:    "goes negative",
			deltas:  []repository.CapacityDelta{{Bidding: 1}, {Bidding: -2}},
			wantErr: true,
		},
		{
			name:        "fractional moves net to zero",
			deltas:      []repository.CapacityDelta{{Bidding: 0.1}, {Bidding: 0.2}, {Bidding: -0.3}},
			wantBidding: 0,
		},
		{
			name:        "fractional reserve survives a withdrawn bid",
			deltas:      []repository.CapacityDelta{{Bidding: 0.1}, {Bidding: 0.7}, {Bidding: -0.7}},
			wantBidding: 0.1,
		},
		{
			name:        "fractional moves fill exactly",
			deltas:      []repository.CapacityDelta{{Bidding: 3.3}, {Bidding: 3.3}, {Bidding: 3.4}},
			wantBidding: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStorage(t)
			var err error
			for _, delta := range tt.deltas {
				err = s.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
					return tx.AdjustCapacity(ctx, "SEAU0000001", delta)
				})
				if err != nil {
					break
				}
			}
			if tt.wantErr {
				assert.ErrorIs(t, err, repository.ErrConflict)
				return
			}
			require.NoError(t, err)
			c, err := s.Container("SEAU0000001")
			require.NoError(t, err)
			assert.Equal(t, tt.wantBidding, c.BiddingCbm)
			assert.Zero(t, c.ConfirmedCbm)
		})
	}
}

func TestMemoryStorage_RollbackRestoresEveryWrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	var req *repository.CargoRequest
	var offer *repository.Offer
	err := s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		req = &repository.CargoRequest{Status: repository.RequestOpen}
		require.NoError(t, tx.CreateRequest(ctx, req))
		offer = &repository.Offer{RequestID: req.ID, ContainerID: "SEAU0000001", Status: repository.OfferPending}
		require.NoError(t, tx.CreateOffer(ctx, offer))
		return tx.AdjustCapacity(ctx, "SEAU0000001", repository.CapacityDelta{Bidding: 2})
	})
	require.NoError(t, err)

	err = s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		require.NoError(t, tx.UpdateRequestStatus(ctx, req.ID, repository.RequestOpen, repository.RequestAccepted))
		require.NoError(t, tx.DeleteOffer(ctx, offer.ID))
		require.NoError(t, tx.AdjustCapacity(ctx, "SEAU0000001", repository.CapacityDelta{Bidding: -2, Confirmed: 1.5}))
		require.NoError(t, tx.UpdateContainerStatus(ctx, "SEAU0000001", repository.ContainerRegistered, repository.ContainerConfirmed, nil))
		require.NoError(t, tx.CreateRequest(ctx, &repository.CargoRequest{Status: repository.RequestOpen}))
		require.NoError(t, tx.CreateExternalCargo(ctx, &repository.ExternalCargo{ContainerID: "SEAU0000001", Cbm: 1}))
		require.NoError(t, tx.CreateNotification(ctx, &repository.Notification{RecipientID: "cus-1"}))
		require.NoError(t, tx.CreateOutboxTask(ctx, &repository.OutboxTask{Topic: "events"}))
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := s.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.RequestOpen, got.Status)
	_, err = s.GetOffer(ctx, offer.ID)
	require.NoError(t, err)
	c, err := s.Container("SEAU0000001")
	require.NoError(t, err)
	assert.Equal(t, 2.0, c.BiddingCbm)
	assert.Zero(t, c.ConfirmedCbm)
	assert.Equal(t, repository.ContainerRegistered, c.Status)
	cargo, err := s.ListExternalCargo(ctx, "SEAU0000001")
	require.NoError(t, err)
	assert.Empty(t, cargo)
	assert.Empty(t, s.OutboxTasks())
	unread, err := s.CountUnreadNotifications(ctx, "cus-1")
	require.NoError(t, err)
	assert.Zero(t, unread)

	// Ids handed out by the aborted transaction are reused.
	err = s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		next := &repository.CargoRequest{Status: repository.RequestOpen}
		require.NoError(t, tx.CreateRequest(ctx, next))
		assert.Equal(t, req.ID+1, next.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStorage_RollbackOnPanic(t *testing.T) {
	s := newTestStorage(t)

	assert.Panics(t, func() {
		_ = s.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
			require.NoError(t, tx.AdjustCapacity(ctx, "SEAU0000001", repository.CapacityDelta{Confirmed: 3}))
			panic("boom")
		})
	})

	c, err := s.Container("SEAU0000001")
	require.NoError(t, err)
	assert.Zero(t, c.ConfirmedCbm)
}

func TestMemoryStorage_ExternalCargo(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	cargo := &repository.ExternalCargo{ContainerID: "SEAU0000001", Name: "pallets", Cbm: 1.25}
	err := s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.CreateExternalCargo(ctx, cargo)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cargo.ID)

	err = s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		got, err := tx.GetExternalCargo(ctx, cargo.ID)
		require.NoError(t, err)
		assert.Equal(t, "pallets", got.Name)
		require.NoError(t, tx.DeleteExternalCargo(ctx, cargo.ID))
		assert.ErrorIs(t, tx.DeleteExternalCargo(ctx, cargo.ID), repository.ErrConflict)
		return nil
	})
	require.NoError(t, err)

	list, err := s.ListExternalCargo(ctx, "SEAU0000001")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStorage_UpsertUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.UpsertUser(ctx, "new-1", "pending"))
	require.NoError(t, s.UpsertUser(ctx, "new-1", "fwd"))
	require.NoError(t, s.UpsertUser(ctx, "cus-1", "cus"))

	forwarders, err := s.CountUsersByRole(ctx, "fwd")
	require.NoError(t, err)
	assert.Equal(t, int64(1), forwarders)
	pending, err := s.CountUsersByRole(ctx, "pending")
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestMemoryStorage_ConditionalStatusWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	err := s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		req := &repository.CargoRequest{Status: repository.RequestOpen}
		require.NoError(t, tx.CreateRequest(ctx, req))
		require.NoError(t, tx.UpdateRequestStatus(ctx, req.ID, repository.RequestOpen, repository.RequestAccepted))
		assert.ErrorIs(t, tx.UpdateRequestStatus(ctx, req.ID, repository.RequestOpen, repository.RequestClosedNoWinner), repository.ErrConflict)

		offer := &repository.Offer{RequestID: req.ID, Status: repository.OfferPending}
		require.NoError(t, tx.CreateOffer(ctx, offer))
		require.NoError(t, tx.UpdateOfferStatus(ctx, offer.ID, repository.OfferPending, repository.OfferRejected))
		assert.ErrorIs(t, tx.DeleteOffer(ctx, offer.ID), repository.ErrConflict)
		assert.ErrorIs(t, tx.UpdateOfferPrice(ctx, offer.ID, 10, "USD"), repository.ErrConflict)

		decided, err := tx.GetOffer(ctx, offer.ID)
		require.NoError(t, err)
		require.NotNil(t, decided.DecidedAt)
		assert.Equal(t, testNow, *decided.DecidedAt)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStorage_ContainerIDsAreUnique(t *testing.T) {
	s := newTestStorage(t)

	err := s.InTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.CreateContainer(ctx, &repository.Container{ID: "SEAU0000001"})
	})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestMemoryStorage_Notifications(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	err := s.InTx(ctx, func(ctx context.Context, tx Tx) error {
		for _, n := range []*repository.Notification{
			{RecipientID: "cus-1", Message: "first"},
			{RecipientID: "cus-1", Message: "second"},
			{RecipientID: "cus-1", Message: "seen", IsRead: true},
			{RecipientID: "fwd-a", Message: "other"},
		} {
			if err := tx.CreateNotification(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	unread, err := s.CountUnreadNotifications(ctx, "cus-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	assert.ErrorIs(t, s.MarkNotificationRead(ctx, 4, "cus-1"), repository.ErrObjectNotFound)
	require.NoError(t, s.MarkNotificationRead(ctx, 1, "cus-1"))

	updated, err := s.MarkAllNotificationsRead(ctx, "cus-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	updated, err = s.MarkAllNotificationsRead(ctx, "cus-1")
	require.NoError(t, err)
	assert.Zero(t, updated)

	list, err := s.ListUnreadNotifications(ctx, "fwd-a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "other", list[0].Message)
}
