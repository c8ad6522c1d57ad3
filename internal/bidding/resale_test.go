package bidding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

// won leaves forwarderA holding the accepted offer on a fresh shipper request.
func (f *fixture) won(cbm float64) (*repository.CargoRequest, *repository.Offer, string) {
	f.t.Helper()
	containerID := f.container(forwarderA, 26)
	req := f.request(shipper, cbm)
	offer := f.offer(forwarderA, req.ID, containerID)
	_, err := f.svc.ConfirmOffer(context.Background(), shipper, req.ID, offer.ID)
	require.NoError(f.t, err)
	return req, offer, containerID
}

func TestResale_HandOver(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	parent, source, containerA := f.won(5)

	child, err := f.svc.ResaleFromAcceptedOffer(ctx, forwarderA, source.ID)
	require.NoError(t, err)
	require.NotNil(t, child.SourceOfferID)
	assert.Equal(t, source.ID, *child.SourceOfferID)
	assert.Equal(t, forwarderA.ID, child.RequesterID)
	assert.Equal(t, parent.Deadline, child.Deadline)
	assert.Equal(t, 5.0, child.Cbm)

	a := f.capacity(containerA)
	assert.Equal(t, 0.0, a.ConfirmedCbm)
	assert.Equal(t, 5.0, a.RegisteringCbm)

	containerB := f.container(forwarderB, 26)
	containerC := f.container(forwarderC, 26)
	bidB := f.offer(forwarderB, child.ID, containerB)
	bidC := f.offer(forwarderC, child.ID, containerC)

	_, err = f.svc.ConfirmOffer(ctx, forwarderA, child.ID, bidB.ID)
	require.NoError(t, err)

	assert.Equal(t, repository.RequestResold, f.requestStatus(parent.ID))
	assert.Equal(t, repository.RequestAccepted, f.requestStatus(child.ID))
	assert.Equal(t, repository.OfferRejected, f.offerStatus(child.ID, bidC.ID))

	a = f.capacity(containerA)
	assert.Equal(t, 0.0, a.ConfirmedCbm)
	assert.Equal(t, 0.0, a.RegisteringCbm)
	assert.Equal(t, 5.0, f.capacity(containerB).ConfirmedCbm)
	assert.Equal(t, 0.0, f.capacity(containerC).BiddingCbm)

	// Container B now carries the shipper's cargo through the whole chain.
	f.events.reset()
	_, err = f.containers.Confirm(ctx, forwarderB, containerB, "MSC-OSCAR-12E")
	require.NoError(t, err)
	changed := f.events.events[0].(domain.ContainerStatusChanged)
	requesters := make([]string, 0, len(changed.Parties))
	for _, p := range changed.Parties {
		requesters = append(requesters, p.RequesterID)
	}
	assert.ElementsMatch(t, []string{forwarderA.ID, shipper.ID}, requesters)

	// The resold cargo left container A, so its confirmation names no one.
	f.events.reset()
	_, err = f.containers.Confirm(ctx, forwarderA, containerA, "HMM-ALGECIRAS-3W")
	require.NoError(t, err)
	require.Len(t, f.events.events, 1)
	assert.Empty(t, f.events.events[0].(domain.ContainerStatusChanged).Parties)
}

func TestResale_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, source, containerA := f.won(5)
	child, err := f.svc.ResaleFromAcceptedOffer(ctx, forwarderA, source.ID)
	require.NoError(t, err)
	containerB := f.container(forwarderB, 26)
	bid := f.offer(forwarderB, child.ID, containerB)

	err = f.svc.CancelResale(ctx, forwarderB, child.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	f.events.reset()
	require.NoError(t, f.svc.CancelResale(ctx, forwarderA, child.ID))

	assert.Equal(t, repository.RequestClosedNoWinner, f.requestStatus(child.ID))
	assert.Equal(t, repository.OfferRejected, f.offerStatus(child.ID, bid.ID))
	a := f.capacity(containerA)
	assert.Equal(t, 5.0, a.ConfirmedCbm)
	assert.Equal(t, 0.0, a.RegisteringCbm)
	assert.Equal(t, 0.0, f.capacity(containerB).BiddingCbm)
	assert.Equal(t, []string{domain.EventOfferDecided, domain.EventResaleCancelled}, f.events.kinds())

	err = f.svc.CancelResale(ctx, forwarderA, child.ID)
	assert.ErrorIs(t, err, domain.ErrRequestClosed)

	// The volume can be listed again once the previous listing is closed.
	_, err = f.svc.ResaleFromAcceptedOffer(ctx, forwarderA, source.ID)
	assert.NoError(t, err)
}

func TestResale_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("listed twice", func(t *testing.T) {
		f := newFixture(t)
		_, source, _ := f.won(5)
		_, err := f.svc.ResaleFromAcceptedOffer(ctx, forwarderA, source.ID)
		require.NoError(t, err)

		_, err = f.svc.ResaleFromAcceptedOffer(ctx, forwarderA, source.ID)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("another forwarder's offer", func(t *testing.T) {
		f := newFixture(t)
		_, source, _ := f.won(5)

		_, err := f.svc.ResaleFromAcceptedOffer(ctx, forwarderB, source.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("pending offer", func(t *testing.T) {
		f := newFixture(t)
		req := f.request(shipper, 5)
		offer := f.offer(forwarderA, req.ID, f.container(forwarderA, 26))

		_, err := f.svc.ResaleFromAcceptedOffer(ctx, forwarderA, offer.ID)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("window closed", func(t *testing.T) {
		f := newFixture(t)
		parent, source, containerA := f.won(5)
		f.setNow(parent.Deadline.Add(time.Second))

		_, err := f.svc.ResaleFromAcceptedOffer(ctx, forwarderA, source.ID)
		assert.ErrorIs(t, err, domain.ErrResaleWindowClosed)
		assert.Equal(t, 5.0, f.capacity(containerA).ConfirmedCbm)
	})

	t.Run("container already confirmed", func(t *testing.T) {
		f := newFixture(t)
		_, source, containerA := f.won(5)
		_, err := f.containers.Confirm(ctx, forwarderA, containerA, "ONE-APUS-045E")
		require.NoError(t, err)

		_, err = f.svc.ResaleFromAcceptedOffer(ctx, forwarderA, source.ID)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}
