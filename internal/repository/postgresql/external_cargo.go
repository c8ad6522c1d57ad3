package postgresql

import (
	"context"
	"fmt"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

const externalCargoColumns = `id, container_id, name, cbm, price, currency, created_at`

type ExternalCargoRepo struct {
	db db.DB
}

func NewExternalCargoRepo(db db.DB) *ExternalCargoRepo {
	return &ExternalCargoRepo{db: db}
}

func (r *ExternalCargoRepo) CreateTx(ctx context.Context, tx db.Tx, cargo *repository.ExternalCargo) error {
	err := tx.Get(ctx, &cargo.ID, `
        INSERT INTO external_cargo (container_id, name, cbm, price, currency, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `, cargo.ContainerID, cargo.Name, repository.RoundCbm(cargo.Cbm), cargo.Price, cargo.Currency, cargo.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert external cargo into container %s: %w", cargo.ContainerID, err)
	}
	return nil
}

func (r *ExternalCargoRepo) GetByIDTx(ctx context.Context, tx db.Tx, id int64) (*repository.ExternalCargo, error) {
	var cargo repository.ExternalCargo
	if err := tx.Get(ctx, &cargo, "SELECT "+externalCargoColumns+" FROM external_cargo WHERE id = $1", id); err != nil {
		return nil, notFound(err)
	}
	return &cargo, nil
}

func (r *ExternalCargoRepo) ListByContainer(ctx context.Context, containerID string) ([]*repository.ExternalCargo, error) {
	var cargo []*repository.ExternalCargo
	err := r.db.Select(ctx, &cargo, "SELECT "+externalCargoColumns+" FROM external_cargo WHERE container_id = $1 ORDER BY id ASC", containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list external cargo of container %s: %w", containerID, err)
	}
	return cargo, nil
}

// DeleteTx returns repository.ErrConflict when the row is already gone.
func (r *ExternalCargoRepo) DeleteTx(ctx context.Context, tx db.Tx, id int64) error {
	tag, err := tx.Exec(ctx, "DELETE FROM external_cargo WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete external cargo %d: %w", id, err)
	}
	return expectOneRow(tag)
}
