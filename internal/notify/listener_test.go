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
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

func shipperRequest() repository.CargoRequest {
	return repository.CargoRequest{
		ID:            7,
		ItemName:      "Furniture",
		DeparturePort: "Busan",
		ArrivalPort:   "Los Angeles",
		Cbm:           5,
		Deadline:      testNow.Add(24 * time.Hour),
		RequesterID:   "cus-1",
		RequesterRole: string(domain.RoleShipper),
		Status:        repository.RequestOpen,
	}
}

func dispatch(t *testing.T, e *env, l *Listener, events ...domain.Event) {
	t.Helper()
	err := e.store.InTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return l.Dispatch(ctx, tx, events...)
	})
	require.NoError(t, err)
}

func newListener(e *env) *Listener {
	return NewListener(e.svc, NewDashboard(e.store, e.hub, clock, zap.NewNop()), zap.NewNop())
}

func TestListener_RequestCreated(t *testing.T) {
	e := newEnv()
	l := newListener(e)
	fwd := e.hub.Connect("fwd-a", domain.RoleForwarder)
	cus := e.hub.Connect("cus-1", domain.RoleShipper)
	adm := e.hub.Connect("admin-1", domain.RoleAdmin)

	dispatch(t, e, l, domain.RequestCreated{Request: shipperRequest()})

	evs := drain(fwd)
	require.Len(t, evs, 1)
	assert.Equal(t, live.EventNewRequest, evs[0].Name)
	var card RequestCard
	require.NoError(t, json.Unmarshal(evs[0].Data, &card))
	assert.Equal(t, int64(7), card.RequestID)
	assert.False(t, card.Resale)

	assert.Empty(t, drain(cus))
	assert.Equal(t, []string{live.EventDashboardUpdate}, eventNames(drain(adm)))
}

func TestListener_OfferSubmitted(t *testing.T) {
	e := newEnv()
	l := newListener(e)
	cus := e.hub.Connect("cus-1", domain.RoleShipper)
	req := shipperRequest()

	dispatch(t, e, l, domain.OfferSubmitted{
		Request:     req,
		Offer:       repository.Offer{ID: 3, RequestID: req.ID, ForwarderID: "fwd-a"},
		BidderCount: 2,
	})

	evs := drain(cus)
	assert.Equal(t, []string{live.EventNotification, live.EventUnreadCount, live.EventBidCountUpdate}, eventNames(evs))
	assert.JSONEq(t, `{"requestId":7,"bidderCount":2}`, string(evs[2].Data))
	var view View
	require.NoError(t, json.Unmarshal(evs[0].Data, &view))
	assert.Equal(t, "/cus/cusRequest", view.URL)
}

func TestListener_OfferDecided(t *testing.T) {
	e := newEnv()
	l := newListener(e)
	winner := e.hub.Connect("fwd-a", domain.RoleForwarder)
	loser := e.hub.Connect("fwd-b", domain.RoleForwarder)
	req := shipperRequest()
	req.Status = repository.RequestAccepted

	dispatch(t, e, l,
		domain.OfferDecided{Request: req, Offer: repository.Offer{ID: 1, ForwarderID: "fwd-a", Status: repository.OfferAccepted}, Outcome: domain.OutcomeWon},
		domain.OfferDecided{Request: req, Offer: repository.Offer{ID: 2, ForwarderID: "fwd-b", Status: repository.OfferRejected}, Outcome: domain.OutcomeLostToBidder},
	)

	won := drain(winner)
	require.Equal(t, []string{live.EventNotification, live.EventUnreadCount, live.EventOfferStatusUpdate}, eventNames(won))
	assert.JSONEq(t, `{"offerId":1,"status":"ACCEPTED","statusText":"Accepted"}`, string(won[2].Data))

	lost := drain(loser)
	require.Equal(t, []string{live.EventNotification, live.EventUnreadCount, live.EventOfferStatusUpdate}, eventNames(lost))
	assert.JSONEq(t, `{"offerId":2,"status":"REJECTED","statusText":"Rejected"}`, string(lost[2].Data))
}

func TestListener_ContainerStatusChanged(t *testing.T) {
	e := newEnv()
	l := newListener(e)
	owner := e.hub.Connect("fwd-b", domain.RoleForwarder)
	reseller := e.hub.Connect("fwd-a", domain.RoleForwarder)
	shipper := e.hub.Connect("cus-1", domain.RoleShipper)

	dispatch(t, e, l, domain.ContainerStatusChanged{
		Container: repository.Container{ID: "SEAU0000042", OwnerID: "fwd-b", Status: repository.ContainerShipped},
		From:      repository.ContainerConfirmed,
		Parties:   []domain.ShipmentParty{
			{RequestID: 9, RequesterID: "fwd-a", RequesterRole: string(domain.RoleForwarder)},
			{RequestID: 7, RequesterID: "cus-1", RequesterRole: string(domain.RoleShipper)},
		},
	})

	assert.Empty(t, drain(owner))

	evs := drain(shipper)
	require.Equal(t, []string{live.EventShipmentUpdate, live.EventNotification, live.EventUnreadCount}, eventNames(evs))
	assert.JSONEq(t, `{"requestId":7,"detailedStatus":"SHIPPED"}`, string(evs[0].Data))
	var view View
	require.NoError(t, json.Unmarshal(evs[1].Data, &view))
	assert.Equal(t, "/cus/tracking", view.URL)
	assert.Equal(t, "Container 'SEAU0000042' status changed: CONFIRMED -> SHIPPED.", view.Message)

	assert.Equal(t, []string{live.EventShipmentUpdate, live.EventNotification, live.EventUnreadCount}, eventNames(drain(reseller)))
}

func TestListener_RequestExpired(t *testing.T) {
	e := newEnv()
	l := newListener(e)
	req := shipperRequest()
	req.Status = repository.RequestClosedNoWinner

	dispatch(t, e, l, domain.RequestExpired{Request: req, HadOffers: false})

	list, err := e.svc.ListUnread(context.Background(), "cus-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "'Furniture' closed without receiving any offers.", list[0].Message)
}
