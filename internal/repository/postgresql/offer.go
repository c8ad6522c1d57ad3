package postgresql

import (
	"context"
	"fmt"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

const offerColumns = `id, request_id, forwarder_id, container_id, cbm, price, currency, etd, eta, status, created_at, decided_at`

type OfferRepo struct {
	db db.DB
}

func NewOfferRepo(db db.DB) *OfferRepo {
	return &OfferRepo{db: db}
}

func (r *OfferRepo) CreateTx(ctx context.Context, tx db.Tx, offer *repository.Offer) error {
	err := tx.Get(ctx, &offer.ID, `
        INSERT INTO offers (
            request_id, forwarder_id, container_id, cbm, price, currency, etd, eta, status, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `, offer.RequestID, offer.ForwarderID, offer.ContainerID, offer.Cbm, offer.Price, offer.Currency,
		offer.Etd, offer.Eta, offer.Status, offer.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert offer: %w", err)
	}
	return nil
}

func (r *OfferRepo) GetByID(ctx context.Context, id int64) (*repository.Offer, error) {
	return r.get(ctx, r.db, id)
}

func (r *OfferRepo) GetByIDTx(ctx context.Context, tx db.Tx, id int64) (*repository.Offer, error) {
	return r.get(ctx, tx, id)
}

func (r *OfferRepo) get(ctx context.Context, q querier, id int64) (*repository.Offer, error) {
	var offer repository.Offer
	if err := q.Get(ctx, &offer, "SELECT "+offerColumns+" FROM offers WHERE id = $1", id); err != nil {
		return nil, notFound(err)
	}
	return &offer, nil
}

func (r *OfferRepo) ListByRequest(ctx context.Context, requestID int64) ([]*repository.Offer, error) {
	return r.listByRequest(ctx, r.db, requestID)
}

func (r *OfferRepo) ListByRequestTx(ctx context.Context, tx db.Tx, requestID int64) ([]*repository.Offer, error) {
	return r.listByRequest(ctx, tx, requestID)
}

func (r *OfferRepo) listByRequest(ctx context.Context, q querier, requestID int64) ([]*repository.Offer, error) {
	var offers []*repository.Offer
	err := q.Select(ctx, &offers, "SELECT "+offerColumns+" FROM offers WHERE request_id = $1 ORDER BY id ASC", requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers of request %d: %w", requestID, err)
	}
	return offers, nil
}

func (r *OfferRepo) ListByForwarder(ctx context.Context, forwarderID string) ([]*repository.Offer, error) {
	var offers []*repository.Offer
	err := r.db.Select(ctx, &offers, "SELECT "+offerColumns+" FROM offers WHERE forwarder_id = $1 ORDER BY created_at DESC", forwarderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers of forwarder %s: %w", forwarderID, err)
	}
	return offers, nil
}

func (r *OfferRepo) ListByContainer(ctx context.Context, containerID string) ([]*repository.Offer, error) {
	return r.listByContainer(ctx, r.db, containerID)
}

func (r *OfferRepo) ListByContainerTx(ctx context.Context, tx db.Tx, containerID string) ([]*repository.Offer, error) {
	return r.listByContainer(ctx, tx, containerID)
}

func (r *OfferRepo) listByContainer(ctx context.Context, q querier, containerID string) ([]*repository.Offer, error) {
	var offers []*repository.Offer
	err := q.Select(ctx, &offers, "SELECT "+offerColumns+" FROM offers WHERE container_id = $1 ORDER BY id ASC", containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers in container %s: %w", containerID, err)
	}
	return offers, nil
}

func (r *OfferRepo) ExistsTx(ctx context.Context, tx db.Tx, requestID int64, forwarderID string) (bool, error) {
	var exists bool
	err := tx.Get(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM offers WHERE request_id = $1 AND forwarder_id = $2)", requestID, forwarderID)
	if err != nil {
		return false, fmt.Errorf("failed to check offer existence: %w", err)
	}
	return exists, nil
}

func (r *OfferRepo) CountByRequestTx(ctx context.Context, tx db.Tx, requestID int64) (int, error) {
	var count int
	if err := tx.Get(ctx, &count, "SELECT COUNT(*) FROM offers WHERE request_id = $1", requestID); err != nil {
		return 0, fmt.Errorf("failed to count offers of request %d: %w", requestID, err)
	}
	return count, nil
}

// UpdateStatusTx is conditional on the current status; a decided offer is never overwritten.
func (r *OfferRepo) UpdateStatusTx(ctx context.Context, tx db.Tx, id int64, from, to repository.OfferStatus, now time.Time) error {
	tag, err := tx.Exec(ctx, `
        UPDATE offers
        SET status = $3, decided_at = $4
        WHERE id = $1 AND status = $2
    `, id, from, to, now)
	if err != nil {
		return fmt.Errorf("failed to update offer %d status: %w", id, err)
	}
	return expectOneRow(tag)
}

func (r *OfferRepo) UpdatePriceTx(ctx context.Context, tx db.Tx, id int64, price float64, currency string) error {
	tag, err := tx.Exec(ctx, `
        UPDATE offers
        SET price = $2, currency = $3
        WHERE id = $1 AND status = $4
    `, id, price, currency, repository.OfferPending)
	if err != nil {
		return fmt.Errorf("failed to update offer %d price: %w", id, err)
	}
	return expectOneRow(tag)
}

func (r *OfferRepo) DeleteTx(ctx context.Context, tx db.Tx, id int64) error {
	tag, err := tx.Exec(ctx, "DELETE FROM offers WHERE id = $1 AND status = $2", id, repository.OfferPending)
	if err != nil {
		return fmt.Errorf("failed to delete offer %d: %w", id, err)
	}
	return expectOneRow(tag)
}
