package domain

import (
	"context"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

const (
	EventRequestCreated         = "request_created"
	EventOfferSubmitted         = "offer_submitted"
	EventOfferWithdrawn         = "offer_withdrawn"
	EventOfferPriceUpdated      = "offer_price_updated"
	EventOfferDecided           = "offer_decided"
	EventRequestFulfilled       = "request_fulfilled"
	EventRequestExpired         = "request_expired"
	EventResaleListed           = "resale_listed"
	EventResaleCancelled        = "resale_cancelled"
	EventContainerStatusChanged = "container_status_changed"
)

// Event is a fact emitted by the state machine inside its transaction.
type Event interface {
	Kind() string
}

// Outcome tells a forwarder why its offer left PENDING.
type Outcome string

const (
	OutcomeWon            Outcome = "WON"
	OutcomeLostToBidder   Outcome = "LOST_TO_BIDDER"
	OutcomeClosedNoWinner Outcome = "CLOSED_NO_WINNER"
)

type RequestCreated struct {
	Request repository.CargoRequest `json:"request"`
}

type OfferSubmitted struct {
	Request     repository.CargoRequest `json:"request"`
	Offer       repository.Offer        `json:"offer"`
	BidderCount int                     `json:"bidderCount"`
}

type OfferWithdrawn struct {
	Request     repository.CargoRequest `json:"request"`
	Offer       repository.Offer        `json:"offer"`
	BidderCount int                     `json:"bidderCount"`
}

type OfferPriceUpdated struct {
	Request repository.CargoRequest `json:"request"`
	Offer   repository.Offer        `json:"offer"`
}

// OfferDecided is emitted once per offer that left PENDING.
type OfferDecided struct {
	Request repository.CargoRequest `json:"request"`
	Offer   repository.Offer        `json:"offer"`
	Outcome Outcome                 `json:"outcome"`
}

type RequestFulfilled struct {
	Request      repository.CargoRequest `json:"request"`
	WinningOffer repository.Offer        `json:"winningOffer"`
}

type RequestExpired struct {
	Request   repository.CargoRequest `json:"request"`
	HadOffers bool                    `json:"hadOffers"`
}

type ResaleListed struct {
	Request     repository.CargoRequest `json:"request"`
	SourceOffer repository.Offer        `json:"sourceOffer"`
}

type ResaleCancelled struct {
	Request     repository.CargoRequest `json:"request"`
	SourceOffer repository.Offer        `json:"sourceOffer"`
	Expired     bool                    `json:"expired"`
}

// ShipmentParty is one requester up the resale chain of a container.
type ShipmentParty struct {
	RequestID     int64  `json:"requestId"`
	RequesterID   string `json:"requesterId"`
	RequesterRole string `json:"requesterRole"`
}

type ContainerStatusChanged struct {
	Container repository.Container       `json:"container"`
	From      repository.ContainerStatus `json:"from"`
	Parties   []ShipmentParty            `json:"parties"`
}

func (RequestCreated) Kind() string         { return EventRequestCreated }
func (OfferSubmitted) Kind() string         { return EventOfferSubmitted }
func (OfferWithdrawn) Kind() string         { return EventOfferWithdrawn }
func (OfferPriceUpdated) Kind() string      { return EventOfferPriceUpdated }
func (OfferDecided) Kind() string           { return EventOfferDecided }
func (RequestFulfilled) Kind() string       { return EventRequestFulfilled }
func (RequestExpired) Kind() string         { return EventRequestExpired }
func (ResaleListed) Kind() string           { return EventResaleListed }
func (ResaleCancelled) Kind() string        { return EventResaleCancelled }
func (ContainerStatusChanged) Kind() string { return EventContainerStatusChanged }

// Dispatcher receives events inside the emitting transaction. Side effects
// that must not roll the transaction back are deferred with tx.AfterCommit.
type Dispatcher interface {
	Dispatch(ctx context.Context, tx storage.Tx, events ...Event) error
}

// Dispatchers fans events out to several dispatchers in order.
type Dispatchers []Dispatcher

func (ds Dispatchers) Dispatch(ctx context.Context, tx storage.Tx, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	for _, d := range ds {
		if err := d.Dispatch(ctx, tx, events...); err != nil {
			return err
		}
	}
	return nil
}
