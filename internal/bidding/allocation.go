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

// ConfirmOffer selects the winning offer of a request. The winner's capacity
// is committed, every other pending offer is rejected and released, and the
// request becomes ACCEPTED, all in one transaction. Concurrent confirmations
// of the same request are serialized by the request lock; all but the first
// fail with ErrAlreadyDecided. Requests are locked before containers, and
// containers in id order.
func (s *Service) ConfirmOffer(ctx context.Context, actor domain.Actor, requestID, offerID int64) (*repository.Offer, error) {
	var winner *repository.Offer
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		req, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.RequesterID != actor.ID {
			return domain.Errorf(domain.ErrForbidden, "request %d belongs to another user", requestID)
		}
		if req.Status != repository.RequestOpen {
			return notOpen(req)
		}
		if err := biddable(req, s.now()); err != nil {
			return err
		}

		offers, err := tx.ListOffersByRequest(ctx, requestID)
		if err != nil {
			return err
		}
		for _, o := range offers {
			if o.ID == offerID {
				winner = o
				break
			}
		}
		if winner == nil {
			return domain.Errorf(domain.ErrValidation, "offer %d does not belong to request %d", offerID, requestID)
		}
		if winner.Status != repository.OfferPending {
			return domain.Errorf(domain.ErrAlreadyDecided, "offer %d is %s", offerID, winner.Status)
		}

		if err := tx.UpdateRequestStatus(ctx, requestID, repository.RequestOpen, repository.RequestAccepted); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return domain.Errorf(domain.ErrAlreadyDecided, "request %d was decided concurrently", requestID)
			}
			return err
		}
		req.Status = repository.RequestAccepted

		if err := s.decide(ctx, tx, winner, repository.OfferAccepted); err != nil {
			return err
		}
		moves := s.ledger.Batch().CommitBid(winner.ContainerID, winner.Cbm)

		events := []domain.Event{domain.OfferDecided{Request: *req, Offer: *winner, Outcome: domain.OutcomeWon}}
		for _, o := range offers {
			if o.ID == winner.ID || o.Status != repository.OfferPending {
				continue
			}
			if err := s.reject(ctx, tx, o, moves); err != nil {
				return err
			}
			events = append(events, domain.OfferDecided{Request: *req, Offer: *o, Outcome: domain.OutcomeLostToBidder})
		}

		if req.IsResale() {
			if err := s.handOver(ctx, tx, req, moves); err != nil {
				return err
			}
		}
		if err := moves.Apply(ctx, tx); err != nil {
			return err
		}

		events = append(events, domain.RequestFulfilled{Request: *req, WinningOffer: *winner})
		return s.dispatcher.Dispatch(ctx, tx, events...)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyDecided) {
			metrics.AllocationConflictsTotal.Inc()
		}
		return nil, err
	}

	metrics.OffersConfirmedTotal.Inc()
	s.logger.Info("offer confirmed",
		zap.Int64("request_id", requestID),
		zap.Int64("offer_id", offerID),
		zap.String("forwarder_id", winner.ForwarderID),
	)
	return winner, nil
}

// decide moves a pending offer to its final status. The request lock is held,
// so a guard miss here means the offer was changed outside the state machine.
func (s *Service) decide(ctx context.Context, tx storage.Tx, offer *repository.Offer, to repository.OfferStatus) error {
	if err := tx.UpdateOfferStatus(ctx, offer.ID, repository.OfferPending, to); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			metrics.ConsistencyErrorsTotal.WithLabelValues("decide_offer").Inc()
			s.logger.Error("pending offer changed under request lock",
				zap.Int64("offer_id", offer.ID),
				zap.Int64("request_id", offer.RequestID),
				zap.String("to", string(to)),
			)
			return domain.Errorf(domain.ErrInvalidState, "offer %d is no longer pending", offer.ID)
		}
		return err
	}
	offer.Status = to
	return nil
}

func (s *Service) reject(ctx context.Context, tx storage.Tx, offer *repository.Offer, moves *ledger.Batch) error {
	if err := s.decide(ctx, tx, offer, repository.OfferRejected); err != nil {
		return err
	}
	moves.ReleaseBid(offer.ContainerID, offer.Cbm)
	return nil
}

// handOver settles the resale chain once a resale request got its winner: the
// parent request becomes RESOLD and the reseller's registering volume leaves
// its container.
func (s *Service) handOver(ctx context.Context, tx storage.Tx, child *repository.CargoRequest, moves *ledger.Batch) error {
	source, err := getOffer(ctx, tx, *child.SourceOfferID)
	if err != nil {
		return err
	}
	err = tx.UpdateRequestStatus(ctx, source.RequestID, repository.RequestAccepted, repository.RequestResold)
	if errors.Is(err, repository.ErrConflict) {
		metrics.ConsistencyErrorsTotal.WithLabelValues("resold_parent").Inc()
		s.logger.Error("resale parent is not accepted",
			zap.Int64("parent_request_id", source.RequestID),
			zap.Int64("resale_request_id", child.ID),
		)
		return domain.Errorf(domain.ErrInvalidState, "parent request %d is not accepted", source.RequestID)
	}
	if err != nil {
		return err
	}
	moves.HandOverResale(source.ContainerID, child.Cbm)
	return nil
}
