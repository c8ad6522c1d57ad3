package bidding

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/ledger"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

type OfferSpec struct {
	ContainerID string  `json:"containerId"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
}

func validatePrice(price float64, currency string) error {
	if price <= 0 {
		return domain.Errorf(domain.ErrValidation, "price must be positive")
	}
	if strings.TrimSpace(currency) == "" {
		return domain.Errorf(domain.ErrValidation, "currency is required")
	}
	return nil
}

// eligible checks that the forwarder's container can carry the request.
func (s *Service) eligible(actor domain.Actor, req *repository.CargoRequest, c *repository.Container) error {
	if c.OwnerID != actor.ID {
		return domain.Errorf(domain.ErrForbidden, "container %s belongs to another forwarder", c.ID)
	}
	if c.Status != repository.ContainerRegistered {
		return domain.Errorf(domain.ErrValidation, "container %s is %s and no longer takes bids", c.ID, c.Status)
	}
	if !strings.EqualFold(c.DeparturePort, req.DeparturePort) || !strings.EqualFold(c.ArrivalPort, req.ArrivalPort) {
		return domain.Errorf(domain.ErrValidation, "container %s does not serve %s -> %s", c.ID, req.DeparturePort, req.ArrivalPort)
	}
	if req.DesiredArrivalDate != nil && c.Eta.After(req.DesiredArrivalDate.Add(s.policy.EtaSlack)) {
		return domain.Errorf(domain.ErrValidation, "container %s arrives too late for request %d", c.ID, req.ID)
	}
	return nil
}

// SubmitOffer places a PENDING bid and reserves the request's volume in the container.
func (s *Service) SubmitOffer(ctx context.Context, actor domain.Actor, requestID int64, spec OfferSpec) (*repository.Offer, error) {
	if !actor.Is(domain.RoleForwarder) {
		return nil, domain.Errorf(domain.ErrForbidden, "only forwarders submit offers")
	}
	if strings.TrimSpace(spec.ContainerID) == "" {
		return nil, domain.Errorf(domain.ErrValidation, "containerId is required")
	}
	if err := validatePrice(spec.Price, spec.Currency); err != nil {
		return nil, err
	}

	var offer *repository.Offer
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		req, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		now := s.now()
		if err := biddable(req, now); err != nil {
			return err
		}
		if req.RequesterID == actor.ID {
			return domain.Errorf(domain.ErrValidation, "cannot bid on your own request")
		}
		exists, err := tx.HasOffer(ctx, requestID, actor.ID)
		if err != nil {
			return err
		}
		if exists {
			return domain.Errorf(domain.ErrValidation, "an offer on request %d already exists", requestID)
		}

		c, err := tx.GetContainer(ctx, spec.ContainerID)
		if err != nil {
			if errors.Is(err, repository.ErrObjectNotFound) {
				return domain.Errorf(domain.ErrNotFound, "container %s", spec.ContainerID)
			}
			return err
		}
		if err := s.eligible(actor, req, c); err != nil {
			return err
		}
		if err := s.ledger.ReserveForBid(ctx, tx, c.ID, req.Cbm); err != nil {
			return err
		}

		offer = &repository.Offer{
			RequestID:   requestID,
			ForwarderID: actor.ID,
			ContainerID: c.ID,
			Cbm:         req.Cbm,
			Price:       spec.Price,
			Currency:    strings.ToUpper(strings.TrimSpace(spec.Currency)),
			Etd:         c.Etd,
			Eta:         c.Eta,
			Status:      repository.OfferPending,
			CreatedAt:   now,
		}
		if err := tx.CreateOffer(ctx, offer); err != nil {
			return err
		}
		count, err := tx.CountOffers(ctx, requestID)
		if err != nil {
			return err
		}
		return s.dispatcher.Dispatch(ctx, tx, domain.OfferSubmitted{Request: *req, Offer: *offer, BidderCount: count})
	})
	if err != nil {
		return nil, err
	}

	metrics.OffersSubmittedTotal.Inc()
	s.logger.Info("offer submitted",
		zap.Int64("offer_id", offer.ID),
		zap.Int64("request_id", requestID),
		zap.String("container_id", offer.ContainerID),
	)
	return offer, nil
}

// lockOwnOffer locks the offer's request and re-reads the offer under that lock.
func lockOwnOffer(ctx context.Context, tx storage.Tx, actor domain.Actor, offerID int64) (*repository.CargoRequest, *repository.Offer, error) {
	offer, err := getOffer(ctx, tx, offerID)
	if err != nil {
		return nil, nil, err
	}
	if offer.ForwarderID != actor.ID {
		return nil, nil, domain.Errorf(domain.ErrForbidden, "offer %d belongs to another forwarder", offerID)
	}
	req, err := lockRequest(ctx, tx, offer.RequestID)
	if err != nil {
		return nil, nil, err
	}
	if offer, err = getOffer(ctx, tx, offerID); err != nil {
		return nil, nil, err
	}
	if offer.Status != repository.OfferPending {
		return nil, nil, domain.Errorf(domain.ErrAlreadyDecided, "offer %d is %s", offerID, offer.Status)
	}
	return req, offer, nil
}

// WithdrawOffer removes a PENDING offer and releases its reservation.
func (s *Service) WithdrawOffer(ctx context.Context, actor domain.Actor, offerID int64) error {
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		req, offer, err := lockOwnOffer(ctx, tx, actor, offerID)
		if err != nil {
			return err
		}
		if err := tx.DeleteOffer(ctx, offerID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return domain.Errorf(domain.ErrAlreadyDecided, "offer %d is no longer pending", offerID)
			}
			return err
		}
		if err := s.ledger.ReleaseBid(ctx, tx, offer.ContainerID, offer.Cbm); err != nil {
			return err
		}
		count, err := tx.CountOffers(ctx, req.ID)
		if err != nil {
			return err
		}
		return s.dispatcher.Dispatch(ctx, tx, domain.OfferWithdrawn{Request: *req, Offer: *offer, BidderCount: count})
	})
	if err != nil {
		return err
	}

	s.logger.Info("offer withdrawn", zap.Int64("offer_id", offerID))
	return nil
}

func (s *Service) UpdateOfferPrice(ctx context.Context, actor domain.Actor, offerID int64, price float64, currency string) (*repository.Offer, error) {
	if err := validatePrice(price, currency); err != nil {
		return nil, err
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))

	var updated *repository.Offer
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		req, offer, err := lockOwnOffer(ctx, tx, actor, offerID)
		if err != nil {
			return err
		}
		if err := biddable(req, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateOfferPrice(ctx, offerID, price, currency); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return domain.Errorf(domain.ErrAlreadyDecided, "offer %d is no longer pending", offerID)
			}
			return err
		}
		offer.Price = price
		offer.Currency = currency
		updated = offer
		return s.dispatcher.Dispatch(ctx, tx, domain.OfferPriceUpdated{Request: *req, Offer: *offer})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListAvailableContainers returns the actor's containers that could carry the request now.
func (s *Service) ListAvailableContainers(ctx context.Context, actor domain.Actor, requestID int64) ([]*repository.Container, error) {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	containers, err := s.store.ListContainersByOwner(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	available := make([]*repository.Container, 0, len(containers))
	for _, c := range containers {
		if s.eligible(actor, req, c) != nil || ledger.Available(c) < req.Cbm {
			continue
		}
		available = append(available, c)
	}
	return available, nil
}
