package ledger

import (
	"context"
	"sort"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

// Batch collects the capacity moves of one decision and applies them in
// container id order. Every multi-container transaction locks its containers
// in that order, so two decisions sharing containers cannot deadlock.
type Batch struct {
	ledger *Ledger
	moves  []move
}

type move struct {
	containerID string
	apply       func(ctx context.Context, tx storage.Tx) error
}

func (l *Ledger) Batch() *Batch {
	return &Batch{ledger: l}
}

func (b *Batch) add(containerID string, apply func(ctx context.Context, tx storage.Tx) error) *Batch {
	b.moves = append(b.moves, move{containerID: containerID, apply: apply})
	return b
}

func (b *Batch) CommitBid(containerID string, cbm float64) *Batch {
	return b.add(containerID, func(ctx context.Context, tx storage.Tx) error {
		return b.ledger.CommitBid(ctx, tx, containerID, cbm)
	})
}

func (b *Batch) ReleaseBid(containerID string, cbm float64) *Batch {
	return b.add(containerID, func(ctx context.Context, tx storage.Tx) error {
		return b.ledger.ReleaseBid(ctx, tx, containerID, cbm)
	})
}

func (b *Batch) UnmarkResale(containerID string, cbm float64) *Batch {
	return b.add(containerID, func(ctx context.Context, tx storage.Tx) error {
		return b.ledger.UnmarkResale(ctx, tx, containerID, cbm)
	})
}

func (b *Batch) HandOverResale(containerID string, cbm float64) *Batch {
	return b.add(containerID, func(ctx context.Context, tx storage.Tx) error {
		return b.ledger.HandOverResale(ctx, tx, containerID, cbm)
	})
}

// Apply runs the collected moves. Moves on the same container keep the order
// they were added in.
func (b *Batch) Apply(ctx context.Context, tx storage.Tx) error {
	sort.SliceStable(b.moves, func(i, j int) bool { return b.moves[i].containerID < b.moves[j].containerID })
	for _, m := range b.moves {
		if err := m.apply(ctx, tx); err != nil {
			return err
		}
	}
	b.moves = nil
	return nil
}
