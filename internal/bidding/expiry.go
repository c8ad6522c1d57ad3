package bidding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/ledger"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

// ExpireOverdueRequests closes every OPEN request whose deadline has passed.
// Pending bids are rejected and released; resale requests additionally return
// their volume to the reseller. Requests are processed in batches, one
// transaction per batch, and the number of closed requests is returned.
func (s *Service) ExpireOverdueRequests(ctx context.Context) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		now := s.now()
		closed := 0
		err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			reqs, err := tx.ListOverdueRequests(ctx, now, s.policy.SweepBatch)
			if err != nil {
				return err
			}
			// One batch for the whole sweep keeps container locks in id order.
			moves := s.ledger.Batch()
			for _, req := range reqs {
				if err := s.expire(ctx, tx, req, moves); err != nil {
					return fmt.Errorf("expire request %d: %w", req.ID, err)
				}
			}
			if err := moves.Apply(ctx, tx); err != nil {
				return err
			}
			closed = len(reqs)
			return nil
		})
		if err != nil {
			metrics.OperationErrorsTotal.WithLabelValues("expire_requests").Inc()
			s.logger.Error("deadline sweep failed", zap.Int("closed", total), zap.Error(err))
			return total, err
		}

		total += closed
		metrics.RequestsExpiredTotal.Add(float64(closed))
		if closed < s.policy.SweepBatch {
			break
		}
	}

	if total > 0 {
		s.logger.Info("overdue requests closed", zap.Int("count", total))
	}
	return total, nil
}

func (s *Service) expire(ctx context.Context, tx storage.Tx, req *repository.CargoRequest, moves *ledger.Batch) error {
	if req.IsResale() {
		return s.revertResale(ctx, tx, req, true, moves)
	}

	offers, err := tx.CountOffers(ctx, req.ID)
	if err != nil {
		return err
	}
	events, err := s.closeWithoutWinner(ctx, tx, req, moves)
	if err != nil {
		return err
	}
	events = append(events, domain.RequestExpired{Request: *req, HadOffers: offers > 0})
	return s.dispatcher.Dispatch(ctx, tx, events...)
}
