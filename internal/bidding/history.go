package bidding

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

type HistoryKind string

const (
	HistorySale     HistoryKind = "SALE"
	HistoryPurchase HistoryKind = "PURCHASE"
	HistoryShipment HistoryKind = "SHIPMENT"
)

// HistoryFilter narrows the transaction history. From and To are inclusive
// calendar days.
type HistoryFilter struct {
	From    *time.Time
	To      *time.Time
	Keyword string
}

// HistoryEntry is one settled deal seen from the actor's side.
type HistoryEntry struct {
	Kind          HistoryKind `json:"kind"`
	Date          time.Time   `json:"date"`
	RequestID     int64       `json:"requestId"`
	OfferID       int64       `json:"offerId"`
	ContainerID   string      `json:"containerId"`
	ItemName      string      `json:"itemName"`
	DeparturePort string      `json:"departurePort"`
	ArrivalPort   string      `json:"arrivalPort"`
	PartnerID     string      `json:"partnerId"`
	Cbm           float64     `json:"cbm"`
	Price         float64     `json:"price"`
	Currency      string      `json:"currency"`
}

// TransactionHistory lists the deals of actor whose cargo finally travelled
// in a settled container. Forwarders see what they sold and what they bought
// through resales; shippers see their own requests. Newest first.
func (s *Service) TransactionHistory(ctx context.Context, actor domain.Actor, filter HistoryFilter) ([]HistoryEntry, error) {
	var (
		entries []HistoryEntry
		err     error
	)
	switch actor.Role {
	case domain.RoleForwarder:
		entries, err = s.salesHistory(ctx, actor)
		if err != nil {
			return nil, err
		}
		purchases, err := s.requestHistory(ctx, actor, HistoryPurchase)
		if err != nil {
			return nil, err
		}
		entries = append(entries, purchases...)
	case domain.RoleShipper:
		entries, err = s.requestHistory(ctx, actor, HistoryShipment)
		if err != nil {
			return nil, err
		}
	default:
		return nil, domain.Errorf(domain.ErrForbidden, "role %s has no transaction history", actor.Role)
	}

	entries = filter.apply(entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	return entries, nil
}

func (s *Service) salesHistory(ctx context.Context, actor domain.Actor) ([]HistoryEntry, error) {
	offers, err := s.store.ListOffersByForwarder(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	var entries []HistoryEntry
	for _, o := range offers {
		if o.Status != repository.OfferAccepted {
			continue
		}
		req, err := s.store.GetRequest(ctx, o.RequestID)
		if err != nil {
			return nil, err
		}
		entry, ok, err := s.settledEntry(ctx, HistorySale, req, o, req.RequesterID)
		if err != nil {
			return nil, err
		}
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// requestHistory covers requests the actor posted: resale listings for
// forwarders, cargo requests for shippers.
func (s *Service) requestHistory(ctx context.Context, actor domain.Actor, kind HistoryKind) ([]HistoryEntry, error) {
	requests, err := s.store.ListRequestsByRequester(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	var entries []HistoryEntry
	for _, req := range requests {
		if req.IsResale() != (kind == HistoryPurchase) || !decided(req) {
			continue
		}
		winner, err := s.winningOffer(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			continue
		}
		entry, ok, err := s.settledEntry(ctx, kind, req, winner, winner.ForwarderID)
		if err != nil {
			return nil, err
		}
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// settledEntry follows the deal through any resales to the container the
// cargo actually rides in and reports it only once that container settled.
func (s *Service) settledEntry(ctx context.Context, kind HistoryKind, req *repository.CargoRequest, o *repository.Offer, partnerID string) (HistoryEntry, bool, error) {
	final, err := s.finalOffer(ctx, req, o)
	if err != nil || final == nil {
		return HistoryEntry{}, false, err
	}
	c, err := s.store.GetContainer(ctx, final.ContainerID)
	if err != nil {
		return HistoryEntry{}, false, err
	}
	if c.Status != repository.ContainerSettled {
		return HistoryEntry{}, false, nil
	}

	date := o.CreatedAt
	if o.DecidedAt != nil {
		date = *o.DecidedAt
	}
	return HistoryEntry{
		Kind:          kind,
		Date:          date,
		RequestID:     req.ID,
		OfferID:       o.ID,
		ContainerID:   final.ContainerID,
		ItemName:      req.ItemName,
		DeparturePort: req.DeparturePort,
		ArrivalPort:   req.ArrivalPort,
		PartnerID:     partnerID,
		Cbm:           o.Cbm,
		Price:         o.Price,
		Currency:      o.Currency,
	}, true, nil
}

// finalOffer walks the resale chain starting at the accepted offer o on req.
// It returns nil when a resale in the chain has not been decided yet.
func (s *Service) finalOffer(ctx context.Context, req *repository.CargoRequest, o *repository.Offer) (*repository.Offer, error) {
	for req.Status == repository.RequestResold {
		resales, err := s.store.ListResales(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		var next *repository.CargoRequest
		for _, r := range resales {
			if decided(r) {
				next = r
				break
			}
		}
		if next == nil {
			return nil, nil
		}
		winner, err := s.winningOffer(ctx, next.ID)
		if err != nil || winner == nil {
			return nil, err
		}
		req, o = next, winner
	}
	return o, nil
}

func (s *Service) winningOffer(ctx context.Context, requestID int64) (*repository.Offer, error) {
	offers, err := s.store.ListOffersByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	for _, o := range offers {
		if o.Status == repository.OfferAccepted {
			return o, nil
		}
	}
	return nil, nil
}

func decided(req *repository.CargoRequest) bool {
	return req.Status == repository.RequestAccepted || req.Status == repository.RequestResold
}

func (f HistoryFilter) apply(entries []HistoryEntry) []HistoryEntry {
	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))
	out := entries[:0]
	for _, e := range entries {
		if f.From != nil && e.Date.Before(now.With(*f.From).BeginningOfDay()) {
			continue
		}
		if f.To != nil && e.Date.After(now.With(*f.To).EndOfDay()) {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(e.ItemName), keyword) &&
			!strings.Contains(strings.ToLower(e.PartnerID), keyword) {
			continue
		}
		out = append(out, e)
	}
	return out
}
