package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/live"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

const (
	urlShipperRequests   = "/cus/cusRequest"
	urlForwarderRequests = "/fwd/my-posted-requests"
	urlForwarderOffers   = "/fwd/my-offers"
	urlShipperTracking   = "/cus/tracking"
)

// RequestCard is the board entry pushed to forwarders when a request is posted.
type RequestCard struct {
	RequestID          int64      `json:"requestId"`
	ItemName           string     `json:"itemName"`
	DeparturePort      string     `json:"departurePort"`
	ArrivalPort        string     `json:"arrivalPort"`
	Cbm                float64    `json:"cbm"`
	Deadline           time.Time  `json:"deadline"`
	DesiredArrivalDate *time.Time `json:"desiredArrivalDate,omitempty"`
	Resale             bool       `json:"resale"`
}

func NewRequestCard(req *repository.CargoRequest) RequestCard {
	return RequestCard{
		RequestID:          req.ID,
		ItemName:           req.ItemName,
		DeparturePort:      req.DeparturePort,
		ArrivalPort:        req.ArrivalPort,
		Cbm:                req.Cbm,
		Deadline:           req.Deadline,
		DesiredArrivalDate: req.DesiredArrivalDate,
		Resale:             req.IsResale(),
	}
}

type ShipmentUpdate struct {
	RequestID      int64  `json:"requestId"`
	DetailedStatus string `json:"detailedStatus"`
}

type OfferStatusUpdate struct {
	OfferID    int64  `json:"offerId"`
	Status     string `json:"status"`
	StatusText string `json:"statusText"`
}

type BidCountUpdate struct {
	RequestID   int64 `json:"requestId"`
	BidderCount int   `json:"bidderCount"`
}

// Listener turns domain events into notifications for the affected users and
// live updates for their open views.
type Listener struct {
	notifier  *Service
	dashboard *Dashboard
	logger    *zap.Logger
}

func NewListener(notifier *Service, dashboard *Dashboard, logger *zap.Logger) *Listener {
	return &Listener{notifier: notifier, dashboard: dashboard, logger: logger}
}

func (l *Listener) Dispatch(ctx context.Context, tx storage.Tx, events ...domain.Event) error {
	dashboardChanged := false
	for _, ev := range events {
		var err error
		switch e := ev.(type) {
		case domain.RequestCreated:
			l.onRequestCreated(tx, e)
			dashboardChanged = true
		case domain.OfferSubmitted:
			err = l.notifier.Notify(ctx, tx, e.Request.RequesterID,
				fmt.Sprintf("A new offer arrived for '%s'.", e.Request.ItemName), requestsURL(&e.Request))
			l.afterCommit(tx, e.Request.RequesterID, live.EventBidCountUpdate, BidCountUpdate{RequestID: e.Request.ID, BidderCount: e.BidderCount})
		case domain.OfferWithdrawn:
			l.afterCommit(tx, e.Request.RequesterID, live.EventBidCountUpdate, BidCountUpdate{RequestID: e.Request.ID, BidderCount: e.BidderCount})
		case domain.OfferPriceUpdated:
			err = l.notifier.Notify(ctx, tx, e.Request.RequesterID,
				fmt.Sprintf("An offer for '%s' changed its price to %.2f %s.", e.Request.ItemName, e.Offer.Price, e.Offer.Currency), requestsURL(&e.Request))
		case domain.OfferDecided:
			err = l.onOfferDecided(ctx, tx, e)
		case domain.RequestFulfilled:
			err = l.notifier.Notify(ctx, tx, e.Request.RequesterID,
				fmt.Sprintf("A forwarder was selected for '%s'.", e.Request.ItemName), requestsURL(&e.Request))
			dashboardChanged = true
		case domain.RequestExpired:
			msg := fmt.Sprintf("'%s' closed without a winner.", e.Request.ItemName)
			if !e.HadOffers {
				msg = fmt.Sprintf("'%s' closed without receiving any offers.", e.Request.ItemName)
			}
			err = l.notifier.Notify(ctx, tx, e.Request.RequesterID, msg, requestsURL(&e.Request))
			dashboardChanged = true
		case domain.ResaleCancelled:
			if e.Expired {
				err = l.notifier.Notify(ctx, tx, e.Request.RequesterID,
					fmt.Sprintf("The resale of '%s' expired, the cargo is back in container %s.", e.Request.ItemName, e.SourceOffer.ContainerID),
					urlForwarderRequests)
			}
			dashboardChanged = true
		case domain.ContainerStatusChanged:
			err = l.onContainerStatusChanged(ctx, tx, e)
		}
		if err != nil {
			return err
		}
	}

	if dashboardChanged && l.dashboard != nil {
		tx.AfterCommit(l.dashboard.Broadcast)
	}
	return nil
}

func (l *Listener) onRequestCreated(tx storage.Tx, e domain.RequestCreated) {
	ev, err := live.NewEvent(live.EventNewRequest, NewRequestCard(&e.Request))
	if err != nil {
		l.logger.Error("failed to encode request card", zap.Int64("request_id", e.Request.ID), zap.Error(err))
		return
	}
	tx.AfterCommit(func(ctx context.Context) {
		l.notifier.pusher.SendToRole(ctx, domain.RoleForwarder, ev)
	})
}

func (l *Listener) onOfferDecided(ctx context.Context, tx storage.Tx, e domain.OfferDecided) error {
	var msg string
	update := OfferStatusUpdate{OfferID: e.Offer.ID, Status: string(e.Offer.Status)}
	switch e.Outcome {
	case domain.OutcomeWon:
		msg = fmt.Sprintf("Congratulations! Your offer for '%s' was accepted.", e.Request.ItemName)
		update.StatusText = "Accepted"
	case domain.OutcomeLostToBidder:
		msg = fmt.Sprintf("Your offer for '%s' was not selected, another forwarder won.", e.Request.ItemName)
		update.StatusText = "Rejected"
	default:
		msg = fmt.Sprintf("'%s' closed without a winner, your offer was released.", e.Request.ItemName)
		update.StatusText = "Closed"
	}

	if err := l.notifier.Notify(ctx, tx, e.Offer.ForwarderID, msg, urlForwarderOffers); err != nil {
		return err
	}
	l.afterCommit(tx, e.Offer.ForwarderID, live.EventOfferStatusUpdate, update)
	return nil
}

func (l *Listener) onContainerStatusChanged(ctx context.Context, tx storage.Tx, e domain.ContainerStatusChanged) error {
	c := e.Container
	msg := fmt.Sprintf("Container '%s' status changed: %s -> %s.", c.ID, e.From, c.Status)

	notified := make(map[string]bool)
	for _, p := range e.Parties {
		l.afterCommit(tx, p.RequesterID, live.EventShipmentUpdate, ShipmentUpdate{RequestID: p.RequestID, DetailedStatus: string(c.Status)})

		if p.RequesterID == c.OwnerID || notified[p.RequesterID] {
			continue
		}
		notified[p.RequesterID] = true

		url := urlForwarderRequests
		if p.RequesterRole == string(domain.RoleShipper) {
			url = urlShipperTracking
		}
		if err := l.notifier.Notify(ctx, tx, p.RequesterID, msg, url); err != nil {
			return err
		}
	}
	return nil
}

func (l *Listener) afterCommit(tx storage.Tx, userID, name string, payload interface{}) {
	tx.AfterCommit(func(ctx context.Context) {
		l.notifier.push(ctx, userID, name, payload)
	})
}

func requestsURL(req *repository.CargoRequest) string {
	if req.RequesterRole == string(domain.RoleShipper) {
		return urlShipperRequests
	}
	return urlForwarderRequests
}
