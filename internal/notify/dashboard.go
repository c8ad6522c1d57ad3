package notify

import (
	"context"
	"math"
	"time"

	"github.com/jinzhu/now"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/live"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

const (
	ScfiGreen  = "GREEN"
	ScfiRed    = "RED"
	ScfiNormal = "NORMAL"

	scfiThreshold = 5.0
	noBidHorizon  = 24 * time.Hour
)

type DashboardMetrics struct {
	TodayRequests          int64    `json:"todayRequests"`
	TodayDeals             int64    `json:"todayDeals"`
	TotalFwdUsers          int64    `json:"totalFwdUsers"`
	TotalCusUsers          int64    `json:"totalCusUsers"`
	PendingUsers           int64    `json:"pendingUsers"`
	NoBidRequests          int64    `json:"noBidRequests"`
	ScfiChangePercentage   *float64 `json:"scfiChangePercentage"`
	ScfiStatus             string   `json:"scfiStatus"`
	MissedConfirmationRate float64  `json:"missedConfirmationRate"`
}

// Dashboard computes the admin metrics and pushes them to connected admins.
type Dashboard struct {
	store  storage.Storage
	pusher Pusher
	clock  func() time.Time
	logger *zap.Logger
}

func NewDashboard(store storage.Storage, pusher Pusher, clock func() time.Time, logger *zap.Logger) *Dashboard {
	if clock == nil {
		clock = time.Now
	}
	return &Dashboard{store: store, pusher: pusher, clock: clock, logger: logger}
}

func (d *Dashboard) Metrics(ctx context.Context) (*DashboardMetrics, error) {
	t := d.clock()
	day := now.With(t)
	counts, err := d.store.DashboardCounts(ctx, repository.DashboardWindow{
		DayStart:         day.BeginningOfDay(),
		DayEnd:           day.EndOfDay(),
		Now:              t,
		NoBidDeadlineCut: t.Add(noBidHorizon),
	})
	if err != nil {
		return nil, err
	}

	m := &DashboardMetrics{
		TodayRequests: counts.TodayRequests,
		TodayDeals:    counts.TodayDeals,
		NoBidRequests: counts.NoBidRequests,
		ScfiStatus:    ScfiNormal,
	}
	for role, dst := range map[domain.Role]*int64{
		domain.RoleForwarder: &m.TotalFwdUsers,
		domain.RoleShipper:   &m.TotalCusUsers,
		domain.RolePending:   &m.PendingUsers,
	} {
		if *dst, err = d.store.CountUsersByRole(ctx, string(role)); err != nil {
			return nil, err
		}
	}

	points, err := d.store.LatestScfi(ctx, 2)
	if err != nil {
		return nil, err
	}
	m.ScfiChangePercentage, m.ScfiStatus = scfiChange(points)

	decided := counts.Accepted + counts.Resold + counts.ClosedNoWinner
	if decided > 0 {
		m.MissedConfirmationRate = round2(float64(counts.ClosedNoWinner) / float64(decided) * 100)
	}
	return m, nil
}

// scfiChange compares the latest index point with the previous one; points
// are ordered newest first.
func scfiChange(points []*repository.ScfiPoint) (*float64, string) {
	if len(points) < 2 || points[1].IndexValue == 0 {
		return nil, ScfiNormal
	}
	change := round2((points[0].IndexValue - points[1].IndexValue) / points[1].IndexValue * 100)
	switch {
	case change >= scfiThreshold:
		return &change, ScfiGreen
	case change <= -scfiThreshold:
		return &change, ScfiRed
	default:
		return &change, ScfiNormal
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Broadcast pushes fresh metrics to every connected admin.
func (d *Dashboard) Broadcast(ctx context.Context) {
	m, err := d.Metrics(ctx)
	if err != nil {
		d.logger.Error("failed to compute dashboard metrics", zap.Error(err))
		return
	}
	ev, err := live.NewEvent(live.EventDashboardUpdate, m)
	if err != nil {
		d.logger.Error("failed to encode dashboard metrics", zap.Error(err))
		return
	}
	d.pusher.SendToRole(ctx, domain.RoleAdmin, ev)
}

// RecordScfi stores the index value for a day, replacing an earlier value for
// the same day.
func (d *Dashboard) RecordScfi(ctx context.Context, actor domain.Actor, recordDate time.Time, value float64) error {
	if !actor.Is(domain.RoleAdmin) {
		return domain.Errorf(domain.ErrForbidden, "only admins record index values")
	}
	if value <= 0 {
		return domain.Errorf(domain.ErrValidation, "index value must be positive")
	}
	if recordDate.IsZero() {
		return domain.Errorf(domain.ErrValidation, "record date is required")
	}
	p := &repository.ScfiPoint{RecordDate: now.With(recordDate).BeginningOfDay(), IndexValue: value}
	if err := d.store.AddScfi(ctx, p); err != nil {
		return err
	}
	d.Broadcast(ctx)
	return nil
}
