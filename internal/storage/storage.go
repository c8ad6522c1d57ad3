package storage

import (
	"context"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

// Tx is the unit of work handed to domain services. GetRequest and
// GetContainer lock the row until the transaction ends; offers are guarded by
// the lock on their request. Every status or capacity write is conditional and
// returns repository.ErrConflict when its guard fails.
type Tx interface {
	CreateRequest(ctx context.Context, req *repository.CargoRequest) error
	GetRequest(ctx context.Context, id int64) (*repository.CargoRequest, error)
	UpdateRequestStatus(ctx context.Context, id int64, from, to repository.RequestStatus) error
	ListOverdueRequests(ctx context.Context, now time.Time, limit int) ([]*repository.CargoRequest, error)
	ListResales(ctx context.Context, sourceOfferID int64) ([]*repository.CargoRequest, error)

	CreateOffer(ctx context.Context, offer *repository.Offer) error
	GetOffer(ctx context.Context, id int64) (*repository.Offer, error)
	ListOffersByRequest(ctx context.Context, requestID int64) ([]*repository.Offer, error)
	ListOffersByContainer(ctx context.Context, containerID string) ([]*repository.Offer, error)
	HasOffer(ctx context.Context, requestID int64, forwarderID string) (bool, error)
	CountOffers(ctx context.Context, requestID int64) (int, error)
	UpdateOfferStatus(ctx context.Context, id int64, from, to repository.OfferStatus) error
	UpdateOfferPrice(ctx context.Context, id int64, price float64, currency string) error
	DeleteOffer(ctx context.Context, id int64) error

	CreateContainer(ctx context.Context, c *repository.Container) error
	GetContainer(ctx context.Context, id string) (*repository.Container, error)
	AdjustCapacity(ctx context.Context, id string, delta repository.CapacityDelta) error
	UpdateContainerStatus(ctx context.Context, id string, from, to repository.ContainerStatus, vesselID *string) error
	DeleteContainer(ctx context.Context, id string) error

	CreateExternalCargo(ctx context.Context, cargo *repository.ExternalCargo) error
	GetExternalCargo(ctx context.Context, id int64) (*repository.ExternalCargo, error)
	DeleteExternalCargo(ctx context.Context, id int64) error

	CreateNotification(ctx context.Context, n *repository.Notification) error
	CreateOutboxTask(ctx context.Context, task *repository.OutboxTask) error

	// AfterCommit registers fn to run once the transaction has committed.
	// Nothing registered runs when the transaction rolls back.
	AfterCommit(fn func(ctx context.Context))
}

// Storage is the persistence collaborator of the marketplace.
type Storage interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Ping(ctx context.Context) error

	GetRequest(ctx context.Context, id int64) (*repository.CargoRequest, error)
	ListOpenRequests(ctx context.Context, now time.Time) ([]*repository.CargoRequest, error)
	ListRequestsByRequester(ctx context.Context, requesterID string) ([]*repository.CargoRequest, error)
	ListResales(ctx context.Context, sourceOfferID int64) ([]*repository.CargoRequest, error)
	GetOffer(ctx context.Context, id int64) (*repository.Offer, error)
	ListOffersByRequest(ctx context.Context, requestID int64) ([]*repository.Offer, error)
	ListOffersByForwarder(ctx context.Context, forwarderID string) ([]*repository.Offer, error)
	ListOffersByContainer(ctx context.Context, containerID string) ([]*repository.Offer, error)
	GetContainer(ctx context.Context, id string) (*repository.Container, error)
	ListContainersByOwner(ctx context.Context, ownerID string) ([]*repository.Container, error)
	ListExternalCargo(ctx context.Context, containerID string) ([]*repository.ExternalCargo, error)

	ListUnreadNotifications(ctx context.Context, userID string) ([]*repository.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int64, error)
	MarkNotificationRead(ctx context.Context, id int64, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)

	DashboardCounts(ctx context.Context, w repository.DashboardWindow) (*repository.DashboardCounts, error)
	LatestScfi(ctx context.Context, limit int) ([]*repository.ScfiPoint, error)
	AddScfi(ctx context.Context, p *repository.ScfiPoint) error
	CountUsersByRole(ctx context.Context, role string) (int64, error)
	// UpsertUser records a user the authentication service vouched for.
	UpsertUser(ctx context.Context, id, role string) error
}

type afterCommitHooks struct {
	fns []func(ctx context.Context)
}

func (h *afterCommitHooks) AfterCommit(fn func(ctx context.Context)) {
	h.fns = append(h.fns, fn)
}

func (h *afterCommitHooks) run(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for _, fn := range h.fns {
		fn(ctx)
	}
}
