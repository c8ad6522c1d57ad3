package bidding

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/ledger"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

// ResaleFromAcceptedOffer lists the volume a forwarder won as a new request
// other forwarders can bid on. The volume moves from confirmed to registering
// in the reseller's container until the resale is decided or cancelled.
func (s *Service) ResaleFromAcceptedOffer(ctx context.Context, actor domain.Actor, offerID int64) (*repository.CargoRequest, error) {
	var child *repository.CargoRequest
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		offer, err := getOffer(ctx, tx, offerID)
		if err != nil {
			return err
		}
		if offer.ForwarderID != actor.ID {
			return domain.Errorf(domain.ErrForbidden, "offer %d belongs to another forwarder", offerID)
		}
		parent, err := lockRequest(ctx, tx, offer.RequestID)
		if err != nil {
			return err
		}
		if offer, err = getOffer(ctx, tx, offerID); err != nil {
			return err
		}
		if offer.Status != repository.OfferAccepted {
			return domain.Errorf(domain.ErrValidation, "only an accepted offer can be resold, offer %d is %s", offerID, offer.Status)
		}
		if parent.Status != repository.RequestAccepted {
			return domain.Errorf(domain.ErrValidation, "request %d is %s and cannot be resold", parent.ID, parent.Status)
		}
		now := s.now()
		if !now.Before(parent.Deadline) {
			return domain.Errorf(domain.ErrResaleWindowClosed, "request %d deadline has passed", parent.ID)
		}

		resales, err := tx.ListResales(ctx, offerID)
		if err != nil {
			return err
		}
		for _, r := range resales {
			if r.Status == repository.RequestOpen {
				return domain.Errorf(domain.ErrValidation, "offer %d is already listed for resale as request %d", offerID, r.ID)
			}
		}

		c, err := tx.GetContainer(ctx, offer.ContainerID)
		if err != nil {
			return err
		}
		if c.Status != repository.ContainerRegistered {
			return domain.Errorf(domain.ErrValidation, "container %s is %s, its cargo can no longer be resold", c.ID, c.Status)
		}
		if err := s.ledger.MarkForResale(ctx, tx, c.ID, offer.Cbm); err != nil {
			return err
		}

		sourceID := offer.ID
		child = &repository.CargoRequest{
			ItemName:           parent.ItemName,
			Incoterms:          parent.Incoterms,
			TradeType:          parent.TradeType,
			TransportType:      parent.TransportType,
			DeparturePort:      parent.DeparturePort,
			ArrivalPort:        parent.ArrivalPort,
			Cbm:                offer.Cbm,
			Deadline:           parent.Deadline,
			DesiredArrivalDate: parent.DesiredArrivalDate,
			RequesterID:        actor.ID,
			RequesterRole:      string(actor.Role),
			SourceOfferID:      &sourceID,
			Status:             repository.RequestOpen,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := tx.CreateRequest(ctx, child); err != nil {
			return err
		}
		return s.dispatcher.Dispatch(ctx, tx,
			domain.ResaleListed{Request: *child, SourceOffer: *offer},
			domain.RequestCreated{Request: *child},
		)
	})
	if err != nil {
		return nil, err
	}

	metrics.RequestsCreatedTotal.Inc()
	s.logger.Info("resale listed", zap.Int64("request_id", child.ID), zap.Int64("source_offer_id", offerID))
	return child, nil
}

// CancelResale withdraws an OPEN resale request and hands the volume back to
// the reseller's confirmed cargo.
func (s *Service) CancelResale(ctx context.Context, actor domain.Actor, requestID int64) error {
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		child, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if !child.IsResale() {
			return domain.Errorf(domain.ErrValidation, "request %d is not a resale", requestID)
		}
		if child.RequesterID != actor.ID {
			return domain.Errorf(domain.ErrForbidden, "request %d belongs to another user", requestID)
		}
		if child.Status != repository.RequestOpen {
			return notOpen(child)
		}
		moves := s.ledger.Batch()
		if err := s.revertResale(ctx, tx, child, false, moves); err != nil {
			return err
		}
		return moves.Apply(ctx, tx)
	})
	if err != nil {
		return err
	}

	s.logger.Info("resale cancelled", zap.Int64("request_id", requestID))
	return nil
}

// revertResale closes an OPEN resale: its pending bids are rejected and the
// registering volume returns to confirmed in the reseller's container once
// moves is applied.
func (s *Service) revertResale(ctx context.Context, tx storage.Tx, child *repository.CargoRequest, expired bool, moves *ledger.Batch) error {
	source, err := getOffer(ctx, tx, *child.SourceOfferID)
	if err != nil {
		return err
	}
	events, err := s.closeWithoutWinner(ctx, tx, child, moves)
	if err != nil {
		return err
	}
	moves.UnmarkResale(source.ContainerID, child.Cbm)
	events = append(events, domain.ResaleCancelled{Request: *child, SourceOffer: *source, Expired: expired})
	return s.dispatcher.Dispatch(ctx, tx, events...)
}

// closeWithoutWinner rejects the pending offers of an OPEN request and moves
// it to CLOSED_NO_WINNER. Their releases are added to moves. It returns the
// events for the rejected bidders.
func (s *Service) closeWithoutWinner(ctx context.Context, tx storage.Tx, req *repository.CargoRequest, moves *ledger.Batch) ([]domain.Event, error) {
	offers, err := tx.ListOffersByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.UpdateRequestStatus(ctx, req.ID, repository.RequestOpen, repository.RequestClosedNoWinner); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, domain.Errorf(domain.ErrAlreadyDecided, "request %d was decided concurrently", req.ID)
		}
		return nil, err
	}
	req.Status = repository.RequestClosedNoWinner

	var events []domain.Event
	for _, o := range offers {
		if o.Status != repository.OfferPending {
			continue
		}
		if err := s.reject(ctx, tx, o, moves); err != nil {
			return nil, err
		}
		events = append(events, domain.OfferDecided{Request: *req, Offer: *o, Outcome: domain.OutcomeClosedNoWinner})
	}
	return events, nil
}
