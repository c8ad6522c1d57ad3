package bidding

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/ledger"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

const (
	DefaultEtaSlack   = 72 * time.Hour
	DefaultSweepBatch = 100
)

// Policy holds the tunable business rules of the marketplace.
type Policy struct {
	// EtaSlack is how late a container may arrive after the requested date.
	EtaSlack   time.Duration
	SweepBatch int
}

func (p Policy) withDefaults() Policy {
	if p.EtaSlack <= 0 {
		p.EtaSlack = DefaultEtaSlack
	}
	if p.SweepBatch <= 0 {
		p.SweepBatch = DefaultSweepBatch
	}
	return p
}

// Service owns the request/offer state machine and the allocation engine.
type Service struct {
	store      storage.Storage
	ledger     *ledger.Ledger
	dispatcher domain.Dispatcher
	policy     Policy
	clock      func() time.Time
	logger     *zap.Logger
}

func NewService(store storage.Storage, l *ledger.Ledger, dispatcher domain.Dispatcher, policy Policy, clock func() time.Time, logger *zap.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:      store,
		ledger:     l,
		dispatcher: dispatcher,
		policy:     policy.withDefaults(),
		clock:      clock,
		logger:     logger,
	}
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func lockRequest(ctx context.Context, tx storage.Tx, id int64) (*repository.CargoRequest, error) {
	req, err := tx.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, domain.Errorf(domain.ErrNotFound, "request %d", id)
		}
		return nil, err
	}
	return req, nil
}

func getOffer(ctx context.Context, tx storage.Tx, id int64) (*repository.Offer, error) {
	offer, err := tx.GetOffer(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, domain.Errorf(domain.ErrNotFound, "offer %d", id)
		}
		return nil, err
	}
	return offer, nil
}

// notOpen explains why a request can no longer take decisions.
func notOpen(req *repository.CargoRequest) error {
	if req.Status == repository.RequestClosedNoWinner {
		return domain.Errorf(domain.ErrRequestClosed, "request %d closed without a winner", req.ID)
	}
	return domain.Errorf(domain.ErrAlreadyDecided, "request %d is %s", req.ID, req.Status)
}

// biddable reports whether offers may still be placed or decided at now.
func biddable(req *repository.CargoRequest, now time.Time) error {
	if req.Status != repository.RequestOpen {
		return domain.Errorf(domain.ErrRequestClosed, "request %d is %s", req.ID, req.Status)
	}
	if !now.Before(req.Deadline) {
		return domain.Errorf(domain.ErrRequestClosed, "request %d deadline %s has passed", req.ID, req.Deadline.Format(time.RFC3339))
	}
	return nil
}
