package bidding

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/ledger"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

func ledgerSpec(now time.Time, transit time.Duration) ledger.RegisterSpec {
	return ledger.RegisterSpec{
		Size:          "20FT",
		DeparturePort: "Busan",
		ArrivalPort:   "Los Angeles",
		Etd:           now.Add(48 * time.Hour),
		Eta:           now.Add(transit),
	}
}

func TestConfirmOffer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	containerA := f.container(forwarderA, 26)
	containerB := f.container(forwarderB, 26)
	req := f.request(shipper, 5)
	offerA := f.offer(forwarderA, req.ID, containerA)
	offerB := f.offer(forwarderB, req.ID, containerB)
	f.events.reset()

	winner, err := f.svc.ConfirmOffer(ctx, shipper, req.ID, offerA.ID)
	require.NoError(t, err)

	assert.Equal(t, repository.OfferAccepted, winner.Status)
	assert.Equal(t, repository.RequestAccepted, f.requestStatus(req.ID))
	assert.Equal(t, repository.OfferAccepted, f.offerStatus(req.ID, offerA.ID))
	assert.Equal(t, repository.OfferRejected, f.offerStatus(req.ID, offerB.ID))

	a := f.capacity(containerA)
	assert.Equal(t, 5.0, a.ConfirmedCbm)
	assert.Equal(t, 0.0, a.BiddingCbm)
	b := f.capacity(containerB)
	assert.Equal(t, 0.0, b.ConfirmedCbm)
	assert.Equal(t, 0.0, b.BiddingCbm)

	assert.Equal(t, []string{domain.EventOfferDecided, domain.EventOfferDecided, domain.EventRequestFulfilled}, f.events.kinds())
	won := f.events.events[0].(domain.OfferDecided)
	lost := f.events.events[1].(domain.OfferDecided)
	assert.Equal(t, domain.OutcomeWon, won.Outcome)
	assert.Equal(t, domain.OutcomeLostToBidder, lost.Outcome)
	assert.Equal(t, offerB.ID, lost.Offer.ID)
}

// orderingStore records the container of every capacity move committed through it.
type orderingStore struct {
	*storage.MemoryStorage
	mu       sync.Mutex
	adjusted []string
}

type orderingTx struct {
	storage.Tx
	store *orderingStore
}

func (s *orderingStore) InTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return s.MemoryStorage.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return fn(ctx, &orderingTx{Tx: tx, store: s})
	})
}

func (t *orderingTx) AdjustCapacity(ctx context.Context, id string, delta repository.CapacityDelta) error {
	t.store.mu.Lock()
	t.store.adjusted = append(t.store.adjusted, id)
	t.store.mu.Unlock()
	return t.Tx.AdjustCapacity(ctx, id, delta)
}

func TestConfirmOffer_LocksContainersInIDOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	containers := []string{
		f.container(forwarderA, 26),
		f.container(forwarderB, 26),
		f.container(forwarderC, 26),
	}
	req := f.request(shipper, 5)
	offers := []*repository.Offer{
		f.offer(forwarderA, req.ID, containers[0]),
		f.offer(forwarderB, req.ID, containers[1]),
		f.offer(forwarderC, req.ID, containers[2]),
	}

	store := &orderingStore{MemoryStorage: f.store}
	svc := NewService(store, ledger.New(zap.NewNop()), f.events, Policy{}, f.clock, zap.NewNop())
	_, err := svc.ConfirmOffer(ctx, shipper, req.ID, offers[1].ID)
	require.NoError(t, err)

	sorted := append([]string(nil), containers...)
	sort.Strings(sorted)
	assert.Equal(t, sorted, store.adjusted)
	assert.Equal(t, 5.0, f.capacity(containers[1]).ConfirmedCbm)
}

func TestConfirmOffer_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("not the owner", func(t *testing.T) {
		f := newFixture(t)
		req := f.request(shipper, 5)
		offer := f.offer(forwarderA, req.ID, f.container(forwarderA, 26))

		_, err := f.svc.ConfirmOffer(ctx, domain.Actor{ID: "cus-2", Role: domain.RoleShipper}, req.ID, offer.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("offer of another request", func(t *testing.T) {
		f := newFixture(t)
		containerID := f.container(forwarderA, 26)
		req := f.request(shipper, 5)
		other := f.request(shipper, 5)
		f.offer(forwarderA, req.ID, containerID)
		foreign := f.offer(forwarderA, other.ID, containerID)

		_, err := f.svc.ConfirmOffer(ctx, shipper, req.ID, foreign.ID)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("after deadline", func(t *testing.T) {
		f := newFixture(t)
		containerID := f.container(forwarderA, 26)
		req := f.request(shipper, 5)
		offer := f.offer(forwarderA, req.ID, containerID)

		f.setNow(req.Deadline)
		_, err := f.svc.ConfirmOffer(ctx, shipper, req.ID, offer.ID)
		assert.ErrorIs(t, err, domain.ErrRequestClosed)
		assert.Equal(t, 5.0, f.capacity(containerID).BiddingCbm)
	})

	t.Run("already accepted", func(t *testing.T) {
		f := newFixture(t)
		req := f.request(shipper, 5)
		offer := f.offer(forwarderA, req.ID, f.container(forwarderA, 26))
		_, err := f.svc.ConfirmOffer(ctx, shipper, req.ID, offer.ID)
		require.NoError(t, err)

		_, err = f.svc.ConfirmOffer(ctx, shipper, req.ID, offer.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
	})

	t.Run("closed without winner", func(t *testing.T) {
		f := newFixture(t)
		req := f.request(shipper, 5)
		offer := f.offer(forwarderA, req.ID, f.container(forwarderA, 26))
		f.setNow(req.Deadline.Add(time.Minute))
		_, err := f.svc.ExpireOverdueRequests(ctx)
		require.NoError(t, err)

		_, err = f.svc.ConfirmOffer(ctx, shipper, req.ID, offer.ID)
		assert.ErrorIs(t, err, domain.ErrRequestClosed)
	})
}

func TestConfirmOffer_ConcurrentConfirmations(t *testing.T) {
	f := newFixture(t)
	containerA := f.container(forwarderA, 26)
	containerB := f.container(forwarderB, 26)
	req := f.request(shipper, 5)
	offers := []*repository.Offer{
		f.offer(forwarderA, req.ID, containerA),
		f.offer(forwarderB, req.ID, containerB),
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []int64
		conflicts int
	)
	for _, o := range offers {
		wg.Add(1)
		go func(offerID int64) {
			defer wg.Done()
			_, err := f.svc.ConfirmOffer(context.Background(), shipper, req.ID, offerID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, offerID)
				return
			}
			assert.ErrorIs(t, err, domain.ErrAlreadyDecided)
			conflicts++
		}(o.ID)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, 1, conflicts)

	accepted := 0
	for _, o := range offers {
		if f.offerStatus(req.ID, o.ID) == repository.OfferAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)

	a, b := f.capacity(containerA), f.capacity(containerB)
	assert.Equal(t, 5.0, a.ConfirmedCbm+b.ConfirmedCbm)
	assert.Equal(t, 0.0, a.BiddingCbm+b.BiddingCbm)
}

// A shipper posts, two forwarders bid, one wins, the container sails.
func TestMarketplaceScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	containerA := f.container(forwarderA, 26)
	containerB := f.container(forwarderB, 26)

	req := f.request(shipper, 12)
	offerA := f.offer(forwarderA, req.ID, containerA)
	offerB := f.offer(forwarderB, req.ID, containerB)
	assert.Equal(t, 14.0, ledger.Available(ptr(f.capacity(containerA))))

	_, err := f.svc.ConfirmOffer(ctx, shipper, req.ID, offerB.ID)
	require.NoError(t, err)
	assert.Equal(t, 26.0, ledger.Available(ptr(f.capacity(containerA))))
	assert.Equal(t, 14.0, ledger.Available(ptr(f.capacity(containerB))))
	assert.Equal(t, repository.OfferRejected, f.offerStatus(req.ID, offerA.ID))

	f.events.reset()
	c, err := f.containers.Confirm(ctx, forwarderB, containerB, "HMM-ALGECIRAS-001W")
	require.NoError(t, err)
	assert.Equal(t, repository.ContainerConfirmed, c.Status)

	require.Len(t, f.events.events, 1)
	changed := f.events.events[0].(domain.ContainerStatusChanged)
	assert.Equal(t, repository.ContainerRegistered, changed.From)
	require.Len(t, changed.Parties, 1)
	assert.Equal(t, shipper.ID, changed.Parties[0].RequesterID)

	for _, step := range []func(context.Context, domain.Actor, string) (*repository.Container, error){
		f.containers.Ship, f.containers.Complete, f.containers.Settle,
	} {
		_, err := step(ctx, forwarderB, containerB)
		require.NoError(t, err)
	}
	assert.Equal(t, repository.ContainerSettled, f.capacity(containerB).Status)
}

func ptr(c repository.Container) *repository.Container {
	return &c
}
