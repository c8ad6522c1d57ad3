package bidding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/ledger"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

func TestExpireOverdueRequests(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	containerA := f.container(forwarderA, 26)
	containerB := f.container(forwarderB, 26)
	withBids := f.request(shipper, 5)
	silent := f.request(shipper, 3)
	bidA := f.offer(forwarderA, withBids.ID, containerA)
	bidB := f.offer(forwarderB, withBids.ID, containerB)

	later, err := f.svc.CreateRequest(ctx, shipper, f.requestSpec(2, f.clock().Add(72*time.Hour)))
	require.NoError(t, err)

	f.events.reset()
	f.setNow(withBids.Deadline)
	closed, err := f.svc.ExpireOverdueRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, closed)

	assert.Equal(t, repository.RequestClosedNoWinner, f.requestStatus(withBids.ID))
	assert.Equal(t, repository.RequestClosedNoWinner, f.requestStatus(silent.ID))
	assert.Equal(t, repository.RequestOpen, f.requestStatus(later.ID))
	assert.Equal(t, repository.OfferRejected, f.offerStatus(withBids.ID, bidA.ID))
	assert.Equal(t, repository.OfferRejected, f.offerStatus(withBids.ID, bidB.ID))
	assert.Equal(t, 0.0, f.capacity(containerA).BiddingCbm)
	assert.Equal(t, 0.0, f.capacity(containerB).BiddingCbm)

	expired := map[int64]bool{}
	decided := 0
	for _, e := range f.events.events {
		switch e := e.(type) {
		case domain.RequestExpired:
			expired[e.Request.ID] = e.HadOffers
		case domain.OfferDecided:
			assert.Equal(t, domain.OutcomeClosedNoWinner, e.Outcome)
			decided++
		}
	}
	assert.Equal(t, map[int64]bool{withBids.ID: true, silent.ID: false}, expired)
	assert.Equal(t, 2, decided)

	closed, err = f.svc.ExpireOverdueRequests(ctx)
	require.NoError(t, err)
	assert.Zero(t, closed)
}

func TestExpireOverdueRequests_Batches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.store, ledger.New(zap.NewNop()), f.events, Policy{SweepBatch: 2}, f.clock, zap.NewNop())
	for i := 0; i < 5; i++ {
		f.request(shipper, 1)
	}

	f.setNow(f.clock().Add(25 * time.Hour))
	closed, err := svc.ExpireOverdueRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, closed)
}

func TestExpireOverdueRequests_Resale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	parent, source, containerA := f.won(5)
	child, err := f.svc.ResaleFromAcceptedOffer(ctx, forwarderA, source.ID)
	require.NoError(t, err)
	containerB := f.container(forwarderB, 26)
	f.offer(forwarderB, child.ID, containerB)

	f.events.reset()
	f.setNow(parent.Deadline.Add(time.Minute))
	closed, err := f.svc.ExpireOverdueRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	assert.Equal(t, repository.RequestAccepted, f.requestStatus(parent.ID))
	assert.Equal(t, repository.RequestClosedNoWinner, f.requestStatus(child.ID))
	a := f.capacity(containerA)
	assert.Equal(t, 5.0, a.ConfirmedCbm)
	assert.Equal(t, 0.0, a.RegisteringCbm)
	assert.Equal(t, 0.0, f.capacity(containerB).BiddingCbm)

	kinds := f.events.kinds()
	assert.Contains(t, kinds, domain.EventResaleCancelled)
	assert.NotContains(t, kinds, domain.EventRequestExpired)
	cancelled := f.events.events[len(f.events.events)-1].(domain.ResaleCancelled)
	assert.True(t, cancelled.Expired)
}
