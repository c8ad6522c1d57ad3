package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository/postgresql"
)

type PostgresStorage struct {
	db            db.DB
	requests      *postgresql.RequestRepo
	offers        *postgresql.OfferRepo
	containers    *postgresql.ContainerRepo
	cargo         *postgresql.ExternalCargoRepo
	notifications *postgresql.NotificationRepo
	stats         *postgresql.StatsRepo
	users         *postgresql.UserRepo
	outbox        OutboxTaskRepository
}

func NewPostgresStorage(database db.DB, outbox OutboxTaskRepository) *PostgresStorage {
	return &PostgresStorage{
		db:            database,
		requests:      postgresql.NewRequestRepo(database),
		offers:        postgresql.NewOfferRepo(database),
		containers:    postgresql.NewContainerRepo(database),
		cargo:         postgresql.NewExternalCargoRepo(database),
		notifications: postgresql.NewNotificationRepo(database),
		stats:         postgresql.NewStatsRepo(database),
		users:         postgresql.NewUserRepo(database),
		outbox:        outbox,
	}
}

const (
	maxTxAttempts = 3

	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// InTx replays fn in a fresh transaction when the database aborted the
// previous attempt with a deadlock or a serialization failure.
func (s *PostgresStorage) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		if err = s.inTx(ctx, fn); !retryable(err) {
			return err
		}
	}
	return err
}

func (s *PostgresStorage) inTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	ptx := &postgresTx{s: s, tx: tx}
	if err := fn(ctx, ptx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	ptx.run(ctx)
	return nil
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeDeadlockDetected || pgErr.Code == codeSerializationFailure
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStorage) GetRequest(ctx context.Context, id int64) (*repository.CargoRequest, error) {
	return s.requests.GetByID(ctx, id)
}

func (s *PostgresStorage) ListOpenRequests(ctx context.Context, now time.Time) ([]*repository.CargoRequest, error) {
	return s.requests.ListOpen(ctx, now)
}

func (s *PostgresStorage) ListRequestsByRequester(ctx context.Context, requesterID string) ([]*repository.CargoRequest, error) {
	return s.requests.ListByRequester(ctx, requesterID)
}

func (s *PostgresStorage) ListOffersByRequest(ctx context.Context, requestID int64) ([]*repository.Offer, error) {
	return s.offers.ListByRequest(ctx, requestID)
}

func (s *PostgresStorage) GetOffer(ctx context.Context, id int64) (*repository.Offer, error) {
	return s.offers.GetByID(ctx, id)
}

func (s *PostgresStorage) ListOffersByContainer(ctx context.Context, containerID string) ([]*repository.Offer, error) {
	return s.offers.ListByContainer(ctx, containerID)
}

func (s *PostgresStorage) ListResales(ctx context.Context, sourceOfferID int64) ([]*repository.CargoRequest, error) {
	return s.requests.ListBySourceOffer(ctx, sourceOfferID)
}

func (s *PostgresStorage) ListOffersByForwarder(ctx context.Context, forwarderID string) ([]*repository.Offer, error) {
	return s.offers.ListByForwarder(ctx, forwarderID)
}

func (s *PostgresStorage) GetContainer(ctx context.Context, id string) (*repository.Container, error) {
	return s.containers.GetByID(ctx, id)
}

func (s *PostgresStorage) ListExternalCargo(ctx context.Context, containerID string) ([]*repository.ExternalCargo, error) {
	return s.cargo.ListByContainer(ctx, containerID)
}

func (s *PostgresStorage) ListContainersByOwner(ctx context.Context, ownerID string) ([]*repository.Container, error) {
	return s.containers.ListByOwner(ctx, ownerID)
}

func (s *PostgresStorage) ListUnreadNotifications(ctx context.Context, userID string) ([]*repository.Notification, error) {
	return s.notifications.ListUnread(ctx, userID)
}

func (s *PostgresStorage) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	return s.notifications.CountUnread(ctx, userID)
}

func (s *PostgresStorage) MarkNotificationRead(ctx context.Context, id int64, userID string) error {
	return s.notifications.MarkRead(ctx, id, userID)
}

func (s *PostgresStorage) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *PostgresStorage) DashboardCounts(ctx context.Context, w repository.DashboardWindow) (*repository.DashboardCounts, error) {
	return s.stats.DashboardCounts(ctx, w)
}

func (s *PostgresStorage) LatestScfi(ctx context.Context, limit int) ([]*repository.ScfiPoint, error) {
	return s.stats.LatestScfi(ctx, limit)
}

func (s *PostgresStorage) AddScfi(ctx context.Context, p *repository.ScfiPoint) error {
	return s.stats.AddScfi(ctx, p)
}

func (s *PostgresStorage) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	return s.users.CountByRole(ctx, role)
}

func (s *PostgresStorage) UpsertUser(ctx context.Context, id, role string) error {
	return s.users.Upsert(ctx, id, role)
}

type postgresTx struct {
	afterCommitHooks
	s  *PostgresStorage
	tx db.Tx
}

func now() time.Time {
	return time.Now().UTC()
}

func (t *postgresTx) CreateRequest(ctx context.Context, req *repository.CargoRequest) error {
	return t.s.requests.CreateTx(ctx, t.tx, req)
}

func (t *postgresTx) GetRequest(ctx context.Context, id int64) (*repository.CargoRequest, error) {
	return t.s.requests.GetByIDTx(ctx, t.tx, id)
}

func (t *postgresTx) UpdateRequestStatus(ctx context.Context, id int64, from, to repository.RequestStatus) error {
	return t.s.requests.UpdateStatusTx(ctx, t.tx, id, from, to, now())
}

func (t *postgresTx) ListOverdueRequests(ctx context.Context, at time.Time, limit int) ([]*repository.CargoRequest, error) {
	return t.s.requests.ListOverdueTx(ctx, t.tx, at, limit)
}

func (t *postgresTx) ListResales(ctx context.Context, sourceOfferID int64) ([]*repository.CargoRequest, error) {
	return t.s.requests.ListBySourceOfferTx(ctx, t.tx, sourceOfferID)
}

func (t *postgresTx) CreateOffer(ctx context.Context, offer *repository.Offer) error {
	return t.s.offers.CreateTx(ctx, t.tx, offer)
}

func (t *postgresTx) GetOffer(ctx context.Context, id int64) (*repository.Offer, error) {
	return t.s.offers.GetByIDTx(ctx, t.tx, id)
}

func (t *postgresTx) ListOffersByRequest(ctx context.Context, requestID int64) ([]*repository.Offer, error) {
	return t.s.offers.ListByRequestTx(ctx, t.tx, requestID)
}

func (t *postgresTx) ListOffersByContainer(ctx context.Context, containerID string) ([]*repository.Offer, error) {
	return t.s.offers.ListByContainerTx(ctx, t.tx, containerID)
}

func (t *postgresTx) HasOffer(ctx context.Context, requestID int64, forwarderID string) (bool, error) {
	return t.s.offers.ExistsTx(ctx, t.tx, requestID, forwarderID)
}

func (t *postgresTx) CountOffers(ctx context.Context, requestID int64) (int, error) {
	return t.s.offers.CountByRequestTx(ctx, t.tx, requestID)
}

func (t *postgresTx) UpdateOfferStatus(ctx context.Context, id int64, from, to repository.OfferStatus) error {
	return t.s.offers.UpdateStatusTx(ctx, t.tx, id, from, to, now())
}

func (t *postgresTx) UpdateOfferPrice(ctx context.Context, id int64, price float64, currency string) error {
	return t.s.offers.UpdatePriceTx(ctx, t.tx, id, price, currency)
}

func (t *postgresTx) DeleteOffer(ctx context.Context, id int64) error {
	return t.s.offers.DeleteTx(ctx, t.tx, id)
}

func (t *postgresTx) CreateContainer(ctx context.Context, c *repository.Container) error {
	return t.s.containers.CreateTx(ctx, t.tx, c)
}

func (t *postgresTx) GetContainer(ctx context.Context, id string) (*repository.Container, error) {
	return t.s.containers.GetByIDTx(ctx, t.tx, id)
}

func (t *postgresTx) AdjustCapacity(ctx context.Context, id string, delta repository.CapacityDelta) error {
	return t.s.containers.AdjustCapacityTx(ctx, t.tx, id, delta, now())
}

func (t *postgresTx) UpdateContainerStatus(ctx context.Context, id string, from, to repository.ContainerStatus, vesselID *string) error {
	return t.s.containers.UpdateStatusTx(ctx, t.tx, id, from, to, vesselID, now())
}

func (t *postgresTx) DeleteContainer(ctx context.Context, id string) error {
	return t.s.containers.DeleteTx(ctx, t.tx, id)
}

func (t *postgresTx) CreateExternalCargo(ctx context.Context, cargo *repository.ExternalCargo) error {
	return t.s.cargo.CreateTx(ctx, t.tx, cargo)
}

func (t *postgresTx) GetExternalCargo(ctx context.Context, id int64) (*repository.ExternalCargo, error) {
	return t.s.cargo.GetByIDTx(ctx, t.tx, id)
}

func (t *postgresTx) DeleteExternalCargo(ctx context.Context, id int64) error {
	return t.s.cargo.DeleteTx(ctx, t.tx, id)
}

func (t *postgresTx) CreateNotification(ctx context.Context, n *repository.Notification) error {
	return t.s.notifications.CreateTx(ctx, t.tx, n)
}

func (t *postgresTx) CreateOutboxTask(ctx context.Context, task *repository.OutboxTask) error {
	return t.s.outbox.CreateTx(ctx, t.tx, task)
}
