package postgresql

import (
	"context"
	"fmt"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

type StatsRepo struct {
	db db.DB
}

func NewStatsRepo(db db.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

func (r *StatsRepo) DashboardCounts(ctx context.Context, w repository.DashboardWindow) (*repository.DashboardCounts, error) {
	var counts repository.DashboardCounts
	err := r.db.Get(ctx, &counts, `
        SELECT
            (SELECT COUNT(*) FROM cargo_requests WHERE created_at BETWEEN $1 AND $2) AS today_requests,
            (SELECT COUNT(*) FROM offers WHERE status = 'ACCEPTED' AND decided_at BETWEEN $1 AND $2) AS today_deals,
            (SELECT COUNT(*) FROM cargo_requests cr
                WHERE cr.status = 'OPEN' AND cr.deadline > $3 AND cr.deadline <= $4
                  AND NOT EXISTS (SELECT 1 FROM offers o WHERE o.request_id = cr.id)) AS no_bid_requests,
            (SELECT COUNT(*) FROM cargo_requests WHERE status = 'ACCEPTED') AS accepted,
            (SELECT COUNT(*) FROM cargo_requests WHERE status = 'RESOLD') AS resold,
            (SELECT COUNT(*) FROM cargo_requests WHERE status = 'CLOSED_NO_WINNER') AS closed_no_winner
    `, w.DayStart, w.DayEnd, w.Now, w.NoBidDeadlineCut)
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboard counts: %w", err)
	}
	return &counts, nil
}

func (r *StatsRepo) LatestScfi(ctx context.Context, limit int) ([]*repository.ScfiPoint, error) {
	var points []*repository.ScfiPoint
	err := r.db.Select(ctx, &points, "SELECT record_date, index_value FROM scfi_points ORDER BY record_date DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read scfi points: %w", err)
	}
	return points, nil
}

func (r *StatsRepo) AddScfi(ctx context.Context, p *repository.ScfiPoint) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO scfi_points (record_date, index_value) VALUES ($1, $2)
        ON CONFLICT (record_date) DO UPDATE SET index_value = EXCLUDED.index_value
    `, p.RecordDate, p.IndexValue)
	if err != nil {
		return fmt.Errorf("failed to save scfi point: %w", err)
	}
	return nil
}
