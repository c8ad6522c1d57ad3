package postgresql

import (
	"context"
	"fmt"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

const requestColumns = `id, item_name, incoterms, trade_type, transport_type, departure_port, arrival_port,
        cbm, deadline, desired_arrival_date, requester_id, requester_role, source_offer_id, status, created_at, updated_at`

type RequestRepo struct {
	db db.DB
}

func NewRequestRepo(db db.DB) *RequestRepo {
	return &RequestRepo{db: db}
}

func (r *RequestRepo) CreateTx(ctx context.Context, tx db.Tx, req *repository.CargoRequest) error {
	err := tx.Get(ctx, &req.ID, `
        INSERT INTO cargo_requests (
            item_name, incoterms, trade_type, transport_type, departure_port, arrival_port,
            cbm, deadline, desired_arrival_date, requester_id, requester_role, source_offer_id, status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id
    `, req.ItemName, req.Incoterms, req.TradeType, req.TransportType, req.DeparturePort, req.ArrivalPort,
		req.Cbm, req.Deadline, req.DesiredArrivalDate, req.RequesterID, req.RequesterRole, req.SourceOfferID, req.Status, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert cargo request: %w", err)
	}
	return nil
}

func (r *RequestRepo) GetByID(ctx context.Context, id int64) (*repository.CargoRequest, error) {
	return r.get(ctx, r.db, "SELECT "+requestColumns+" FROM cargo_requests WHERE id = $1", id)
}

// GetByIDTx locks the request row until the transaction ends.
func (r *RequestRepo) GetByIDTx(ctx context.Context, tx db.Tx, id int64) (*repository.CargoRequest, error) {
	return r.get(ctx, tx, "SELECT "+requestColumns+" FROM cargo_requests WHERE id = $1 FOR UPDATE", id)
}

func (r *RequestRepo) get(ctx context.Context, q querier, query string, id int64) (*repository.CargoRequest, error) {
	var req repository.CargoRequest
	if err := q.Get(ctx, &req, query, id); err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

// UpdateStatusTx moves the request from one status to another and fails with
// repository.ErrConflict when the stored status is no longer `from`.
func (r *RequestRepo) UpdateStatusTx(ctx context.Context, tx db.Tx, id int64, from, to repository.RequestStatus, now time.Time) error {
	tag, err := tx.Exec(ctx, `
        UPDATE cargo_requests
        SET status = $3, updated_at = $4
        WHERE id = $1 AND status = $2
    `, id, from, to, now)
	if err != nil {
		return fmt.Errorf("failed to update cargo request %d status: %w", id, err)
	}
	return expectOneRow(tag)
}

func (r *RequestRepo) ListOpen(ctx context.Context, now time.Time) ([]*repository.CargoRequest, error) {
	var reqs []*repository.CargoRequest
	err := r.db.Select(ctx, &reqs, `
        SELECT `+requestColumns+` FROM cargo_requests
        WHERE status = $1 AND deadline > $2
        ORDER BY deadline ASC
    `, repository.RequestOpen, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list open cargo requests: %w", err)
	}
	return reqs, nil
}

func (r *RequestRepo) ListByRequester(ctx context.Context, requesterID string) ([]*repository.CargoRequest, error) {
	var reqs []*repository.CargoRequest
	err := r.db.Select(ctx, &reqs, `
        SELECT `+requestColumns+` FROM cargo_requests
        WHERE requester_id = $1
        ORDER BY created_at DESC
    `, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cargo requests of %s: %w", requesterID, err)
	}
	return reqs, nil
}

// ListOverdueTx locks OPEN requests whose deadline is not after now, skipping
// rows another sweeper already holds.
func (r *RequestRepo) ListOverdueTx(ctx context.Context, tx db.Tx, now time.Time, limit int) ([]*repository.CargoRequest, error) {
	var reqs []*repository.CargoRequest
	err := tx.Select(ctx, &reqs, `
        SELECT `+requestColumns+` FROM cargo_requests
        WHERE status = $1 AND deadline <= $2
        ORDER BY deadline ASC
        LIMIT $3
        FOR UPDATE SKIP LOCKED
    `, repository.RequestOpen, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue cargo requests: %w", err)
	}
	return reqs, nil
}

func (r *RequestRepo) ListBySourceOffer(ctx context.Context, offerID int64) ([]*repository.CargoRequest, error) {
	return r.listBySourceOffer(ctx, r.db, offerID)
}

func (r *RequestRepo) ListBySourceOfferTx(ctx context.Context, tx db.Tx, offerID int64) ([]*repository.CargoRequest, error) {
	return r.listBySourceOffer(ctx, tx, offerID)
}

func (r *RequestRepo) listBySourceOffer(ctx context.Context, q querier, offerID int64) ([]*repository.CargoRequest, error) {
	var reqs []*repository.CargoRequest
	err := q.Select(ctx, &reqs, `
        SELECT `+requestColumns+` FROM cargo_requests
        WHERE source_offer_id = $1
        ORDER BY created_at DESC
    `, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resale requests of offer %d: %w", offerID, err)
	}
	return reqs, nil
}
