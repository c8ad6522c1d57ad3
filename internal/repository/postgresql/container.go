package postgresql

import (
	"context"
	"fmt"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

const containerColumns = `id, owner_id, size, departure_port, arrival_port, total_capacity, confirmed_cbm,
        registering_cbm, bidding_cbm, etd, eta, vessel_id, status, created_at, updated_at`

type ContainerRepo struct {
	db db.DB
}

func NewContainerRepo(db db.DB) *ContainerRepo {
	return &ContainerRepo{db: db}
}

// CreateTx returns repository.ErrConflict when the id is taken. The insert
// does not abort the transaction in that case, so the caller may retry.
func (r *ContainerRepo) CreateTx(ctx context.Context, tx db.Tx, c *repository.Container) error {
	tag, err := tx.Exec(ctx, `
        INSERT INTO containers (
            id, owner_id, size, departure_port, arrival_port, total_capacity, confirmed_cbm,
            registering_cbm, bidding_cbm, etd, eta, vessel_id, status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        ON CONFLICT (id) DO NOTHING
    `, c.ID, c.OwnerID, c.Size, c.DeparturePort, c.ArrivalPort, c.TotalCapacity, c.ConfirmedCbm,
		c.RegisteringCbm, c.BiddingCbm, c.Etd, c.Eta, c.VesselID, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert container %s: %w", c.ID, err)
	}
	return expectOneRow(tag)
}

func (r *ContainerRepo) GetByID(ctx context.Context, id string) (*repository.Container, error) {
	return r.get(ctx, r.db, "SELECT "+containerColumns+" FROM containers WHERE id = $1", id)
}

// GetByIDTx locks the container row until the transaction ends.
func (r *ContainerRepo) GetByIDTx(ctx context.Context, tx db.Tx, id string) (*repository.Container, error) {
	return r.get(ctx, tx, "SELECT "+containerColumns+" FROM containers WHERE id = $1 FOR UPDATE", id)
}

func (r *ContainerRepo) get(ctx context.Context, q querier, query, id string) (*repository.Container, error) {
	var c repository.Container
	if err := q.Get(ctx, &c, query, id); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *ContainerRepo) ListByOwner(ctx context.Context, ownerID string) ([]*repository.Container, error) {
	var cs []*repository.Container
	err := r.db.Select(ctx, &cs, "SELECT "+containerColumns+" FROM containers WHERE owner_id = $1 ORDER BY etd ASC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers of %s: %w", ownerID, err)
	}
	return cs, nil
}

// AdjustCapacityTx applies delta in a single statement guarded by the
// capacity invariant. A guard miss returns repository.ErrConflict. The delta
// is bound as numeric so the guard never compares in floating point.
func (r *ContainerRepo) AdjustCapacityTx(ctx context.Context, tx db.Tx, id string, d repository.CapacityDelta, now time.Time) error {
	tag, err := tx.Exec(ctx, `
        UPDATE containers
        SET confirmed_cbm = confirmed_cbm + $2::numeric,
            registering_cbm = registering_cbm + $3::numeric,
            bidding_cbm = bidding_cbm + $4::numeric,
            updated_at = $5
        WHERE id = $1
          AND confirmed_cbm + $2::numeric >= 0
          AND registering_cbm + $3::numeric >= 0
          AND bidding_cbm + $4::numeric >= 0
          AND (confirmed_cbm + $2::numeric) + (registering_cbm + $3::numeric) + (bidding_cbm + $4::numeric) <= total_capacity
    `, id, repository.RoundCbm(d.Confirmed), repository.RoundCbm(d.Registering), repository.RoundCbm(d.Bidding), now)
	if err != nil {
		return fmt.Errorf("failed to adjust container %s capacity: %w", id, err)
	}
	return expectOneRow(tag)
}

func (r *ContainerRepo) UpdateStatusTx(ctx context.Context, tx db.Tx, id string, from, to repository.ContainerStatus, vesselID *string, now time.Time) error {
	tag, err := tx.Exec(ctx, `
        UPDATE containers
        SET status = $3, vessel_id = COALESCE($4, vessel_id), updated_at = $5
        WHERE id = $1 AND status = $2
    `, id, from, to, vesselID, now)
	if err != nil {
		return fmt.Errorf("failed to update container %s status: %w", id, err)
	}
	return expectOneRow(tag)
}

// DeleteTx removes a container only while it is REGISTERED and empty.
func (r *ContainerRepo) DeleteTx(ctx context.Context, tx db.Tx, id string) error {
	tag, err := tx.Exec(ctx, `
        DELETE FROM containers
        WHERE id = $1 AND status = $2
          AND confirmed_cbm = 0 AND registering_cbm = 0 AND bidding_cbm = 0
    `, id, repository.ContainerRegistered)
	if err != nil {
		return fmt.Errorf("failed to delete container %s: %w", id, err)
	}
	return expectOneRow(tag)
}
