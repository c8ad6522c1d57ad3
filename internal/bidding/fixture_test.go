package bidding

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/ledger"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

var (
	shipper    = domain.Actor{ID: "cus-1", Role: domain.RoleShipper}
	forwarderA = domain.Actor{ID: "fwd-a", Role: domain.RoleForwarder}
	forwarderB = domain.Actor{ID: "fwd-b", Role: domain.RoleForwarder}
	forwarderC = domain.Actor{ID: "fwd-c", Role: domain.RoleForwarder}
)

// committedEvents keeps the events of committed transactions only.
type committedEvents struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *committedEvents) Dispatch(_ context.Context, tx storage.Tx, events ...domain.Event) error {
	tx.AfterCommit(func(context.Context) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.events = append(c.events, events...)
	})
	return nil
}

func (c *committedEvents) kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]string, 0, len(c.events))
	for _, e := range c.events {
		kinds = append(kinds, e.Kind())
	}
	return kinds
}

func (c *committedEvents) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

type fixture struct {
	t          *testing.T
	mu         sync.Mutex
	now        time.Time
	store      *storage.MemoryStorage
	events     *committedEvents
	svc        *Service
	containers *ledger.ContainerService
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		t:      t,
		now:    time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		events: &committedEvents{},
	}
	f.store = storage.NewMemoryStorage(f.clock)
	l := ledger.New(zap.NewNop())
	f.svc = NewService(f.store, l, f.events, Policy{}, f.clock, zap.NewNop())
	f.containers = ledger.NewContainerService(f.store, l, f.events, f.clock, zap.NewNop())
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) setNow(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

func (f *fixture) container(owner domain.Actor, capacity float64) string {
	f.t.Helper()
	now := f.clock()
	c, err := f.containers.Register(context.Background(), owner, ledger.RegisterSpec{
		Size:          "40FT",
		TotalCapacity: capacity,
		DeparturePort: "Busan",
		ArrivalPort:   "Los Angeles",
		Etd:           now.Add(48 * time.Hour),
		Eta:           now.Add(20 * 24 * time.Hour),
	})
	require.NoError(f.t, err)
	return c.ID
}

func (f *fixture) requestSpec(cbm float64, deadline time.Time) RequestSpec {
	desired := f.clock().Add(21 * 24 * time.Hour)
	return RequestSpec{
		ItemName:           "Furniture",
		Incoterms:          "FOB",
		TradeType:          "IMPORT",
		TransportType:      "FCL",
		DeparturePort:      "busan",
		ArrivalPort:        "los angeles",
		Cbm:                cbm,
		Deadline:           deadline,
		DesiredArrivalDate: &desired,
	}
}

func (f *fixture) request(owner domain.Actor, cbm float64) *repository.CargoRequest {
	f.t.Helper()
	req, err := f.svc.CreateRequest(context.Background(), owner, f.requestSpec(cbm, f.clock().Add(24*time.Hour)))
	require.NoError(f.t, err)
	return req
}

func (f *fixture) offer(bidder domain.Actor, requestID int64, containerID string) *repository.Offer {
	f.t.Helper()
	offer, err := f.svc.SubmitOffer(context.Background(), bidder, requestID, OfferSpec{ContainerID: containerID, Price: 1200, Currency: "usd"})
	require.NoError(f.t, err)
	return offer
}

func (f *fixture) capacity(containerID string) repository.Container {
	f.t.Helper()
	c, err := f.store.Container(containerID)
	require.NoError(f.t, err)
	return *c
}

func (f *fixture) requestStatus(id int64) repository.RequestStatus {
	f.t.Helper()
	req, err := f.store.GetRequest(context.Background(), id)
	require.NoError(f.t, err)
	return req.Status
}

func (f *fixture) offerStatus(requestID, offerID int64) repository.OfferStatus {
	f.t.Helper()
	offers, err := f.store.ListOffersByRequest(context.Background(), requestID)
	require.NoError(f.t, err)
	for _, o := range offers {
		if o.ID == offerID {
			return o.Status
		}
	}
	f.t.Fatalf("offer %d not found on request %d", offerID, requestID)
	return ""
}
