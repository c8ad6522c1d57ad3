package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

// Available is the volume a container can still take.
func Available(c *repository.Container) float64 {
	return repository.FromMilli(repository.Milli(c.TotalCapacity) -
		repository.Milli(c.ConfirmedCbm) - repository.Milli(c.RegisteringCbm) - repository.Milli(c.BiddingCbm))
}

// Ledger applies capacity moves on containers. Each move is a single
// conditional update, so concurrent moves on one container are linearized by
// the store and a move that would break the capacity invariant never lands.
type Ledger struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Ledger {
	return &Ledger{logger: logger}
}

// ReserveForBid holds cbm in biddingCbm while an offer is pending.
func (l *Ledger) ReserveForBid(ctx context.Context, tx storage.Tx, containerID string, cbm float64) error {
	err := l.adjust(ctx, tx, "reserve", containerID, repository.CapacityDelta{Bidding: cbm})
	if errors.Is(err, repository.ErrConflict) {
		metrics.CapacityRejectionsTotal.Inc()
		return domain.Errorf(domain.ErrCapacityExceeded, "container %s cannot take %g cbm", containerID, cbm)
	}
	return err
}

// CommitBid moves cbm from bidding to confirmed when the offer wins.
func (l *Ledger) CommitBid(ctx context.Context, tx storage.Tx, containerID string, cbm float64) error {
	return l.mustAdjust(ctx, tx, "commit", containerID, repository.CapacityDelta{Bidding: -cbm, Confirmed: cbm})
}

// ReleaseBid returns bidding cbm after a rejection or withdrawal.
func (l *Ledger) ReleaseBid(ctx context.Context, tx storage.Tx, containerID string, cbm float64) error {
	return l.mustAdjust(ctx, tx, "release", containerID, repository.CapacityDelta{Bidding: -cbm})
}

func (l *Ledger) MarkForResale(ctx context.Context, tx storage.Tx, containerID string, cbm float64) error {
	return l.mustAdjust(ctx, tx, "mark_resale", containerID, repository.CapacityDelta{Confirmed: -cbm, Registering: cbm})
}

func (l *Ledger) UnmarkResale(ctx context.Context, tx storage.Tx, containerID string, cbm float64) error {
	return l.mustAdjust(ctx, tx, "unmark_resale", containerID, repository.CapacityDelta{Registering: -cbm, Confirmed: cbm})
}

// HandOverResale drops registering cbm once another forwarder took the resold cargo.
func (l *Ledger) HandOverResale(ctx context.Context, tx storage.Tx, containerID string, cbm float64) error {
	return l.mustAdjust(ctx, tx, "hand_over_resale", containerID, repository.CapacityDelta{Registering: -cbm})
}

// UnloadExternal takes off-platform cargo back out of confirmed cbm.
func (l *Ledger) UnloadExternal(ctx context.Context, tx storage.Tx, containerID string, cbm float64) error {
	return l.mustAdjust(ctx, tx, "unload_external", containerID, repository.CapacityDelta{Confirmed: -cbm})
}

// LoadExternal books off-platform cargo straight into confirmed cbm.
func (l *Ledger) LoadExternal(ctx context.Context, tx storage.Tx, containerID string, cbm float64) error {
	err := l.adjust(ctx, tx, "load_external", containerID, repository.CapacityDelta{Confirmed: cbm})
	if errors.Is(err, repository.ErrConflict) {
		metrics.CapacityRejectionsTotal.Inc()
		return domain.Errorf(domain.ErrCapacityExceeded, "container %s cannot take %g cbm", containerID, cbm)
	}
	return err
}

func (l *Ledger) adjust(ctx context.Context, tx storage.Tx, op, containerID string, delta repository.CapacityDelta) error {
	if err := tx.AdjustCapacity(ctx, containerID, delta); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return err
		}
		return fmt.Errorf("ledger %s on container %s: %w", op, containerID, err)
	}
	return nil
}

// mustAdjust is used for moves that are covered by earlier reservations; a
// guard miss there means the books are already inconsistent.
func (l *Ledger) mustAdjust(ctx context.Context, tx storage.Tx, op, containerID string, delta repository.CapacityDelta) error {
	err := l.adjust(ctx, tx, op, containerID, delta)
	if errors.Is(err, repository.ErrConflict) {
		metrics.ConsistencyErrorsTotal.WithLabelValues("ledger_" + op).Inc()
		l.logger.Error("capacity invariant would be violated",
			zap.String("op", op),
			zap.String("container_id", containerID),
			zap.Float64("confirmed_delta", delta.Confirmed),
			zap.Float64("registering_delta", delta.Registering),
			zap.Float64("bidding_delta", delta.Bidding),
		)
		return domain.Errorf(domain.ErrInvalidState, "ledger %s on container %s", op, containerID)
	}
	return err
}
