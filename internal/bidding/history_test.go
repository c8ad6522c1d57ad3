package bidding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
)

func (f *fixture) settle(owner domain.Actor, containerID string) {
	f.t.Helper()
	ctx := context.Background()
	_, err := f.containers.Confirm(ctx, owner, containerID, "ONE-STORK-7W")
	require.NoError(f.t, err)
	_, err = f.containers.Ship(ctx, owner, containerID)
	require.NoError(f.t, err)
	_, err = f.containers.Complete(ctx, owner, containerID)
	require.NoError(f.t, err)
	_, err = f.containers.Settle(ctx, owner, containerID)
	require.NoError(f.t, err)
}

func TestTransactionHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	start := f.clock()

	parent, source, _ := f.won(5)
	child, err := f.svc.ResaleFromAcceptedOffer(ctx, forwarderA, source.ID)
	require.NoError(t, err)

	f.setNow(start.Add(time.Hour))
	containerB := f.container(forwarderB, 26)
	bidB := f.offer(forwarderB, child.ID, containerB)
	_, err = f.svc.ConfirmOffer(ctx, forwarderA, child.ID, bidB.ID)
	require.NoError(t, err)
	f.settle(forwarderB, containerB)

	// Won but never settled, so it stays out of every history.
	containerC := f.container(forwarderC, 26)
	open := f.request(shipper, 3)
	bidC := f.offer(forwarderC, open.ID, containerC)
	_, err = f.svc.ConfirmOffer(ctx, shipper, open.ID, bidC.ID)
	require.NoError(t, err)

	nextDay := start.Add(24 * time.Hour)

	tests := []struct {
		name        string
		actor       domain.Actor
		filter      HistoryFilter
		wantKinds   []HistoryKind
		wantOffers  []int64
		wantPartner []string
	}{
		{
			name:        "reseller sees the sale and the purchase",
			actor:       forwarderA,
			wantKinds:   []HistoryKind{HistoryPurchase, HistorySale},
			wantOffers:  []int64{bidB.ID, source.ID},
			wantPartner: []string{forwarderB.ID, shipper.ID},
		},
		{
			name:        "final carrier sees its sale",
			actor:       forwarderB,
			wantKinds:   []HistoryKind{HistorySale},
			wantOffers:  []int64{bidB.ID},
			wantPartner: []string{forwarderA.ID},
		},
		{
			name:        "shipper sees its request through the resale",
			actor:       shipper,
			wantKinds:   []HistoryKind{HistoryShipment},
			wantOffers:  []int64{source.ID},
			wantPartner: []string{forwarderA.ID},
		},
		{
			name:   "unsettled container is left out",
			actor:  forwarderC,
			filter: HistoryFilter{},
		},
		{
			name:        "keyword matches the partner",
			actor:       forwarderA,
			filter:      HistoryFilter{Keyword: "FWD-B"},
			wantKinds:   []HistoryKind{HistoryPurchase},
			wantOffers:  []int64{bidB.ID},
			wantPartner: []string{forwarderB.ID},
		},
		{
			name:   "keyword matches nothing",
			actor:  forwarderA,
			filter: HistoryFilter{Keyword: "lumber"},
		},
		{
			name:        "same day bounds are inclusive",
			actor:       forwarderA,
			filter:      HistoryFilter{From: &start, To: &start},
			wantKinds:   []HistoryKind{HistoryPurchase, HistorySale},
			wantOffers:  []int64{bidB.ID, source.ID},
			wantPartner: []string{forwarderB.ID, shipper.ID},
		},
		{
			name:   "from the next day",
			actor:  shipper,
			filter: HistoryFilter{From: &nextDay},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := f.svc.TransactionHistory(ctx, tc.actor, tc.filter)
			require.NoError(t, err)
			require.Len(t, entries, len(tc.wantKinds))
			for i, e := range entries {
				assert.Equal(t, tc.wantKinds[i], e.Kind)
				assert.Equal(t, tc.wantOffers[i], e.OfferID)
				assert.Equal(t, tc.wantPartner[i], e.PartnerID)
				assert.Equal(t, containerB, e.ContainerID)
			}
		})
	}

	t.Run("shipper entry names the original request", func(t *testing.T) {
		entries, err := f.svc.TransactionHistory(ctx, shipper, HistoryFilter{})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, parent.ID, entries[0].RequestID)
		assert.Equal(t, "Furniture", entries[0].ItemName)
		assert.Equal(t, 5.0, entries[0].Cbm)
	})

	t.Run("admins have no history", func(t *testing.T) {
		_, err := f.svc.TransactionHistory(ctx, domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}, HistoryFilter{})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}
