package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

var sizeCapacity = map[string]float64{
	"20FT": 26,
	"40FT": 55,
}

// next is the only status a container may move to from the key status.
var next = map[repository.ContainerStatus]repository.ContainerStatus{
	repository.ContainerRegistered: repository.ContainerConfirmed,
	repository.ContainerConfirmed:  repository.ContainerShipped,
	repository.ContainerShipped:    repository.ContainerCompleted,
	repository.ContainerCompleted:  repository.ContainerSettled,
}

type RegisterSpec struct {
	Size          string    `json:"size"`
	TotalCapacity float64   `json:"totalCapacity"`
	DeparturePort string    `json:"departurePort"`
	ArrivalPort   string    `json:"arrivalPort"`
	Etd           time.Time `json:"etd"`
	Eta           time.Time `json:"eta"`
}

// ContainerService drives the container lifecycle for its owning forwarder.
type ContainerService struct {
	store      storage.Storage
	ledger     *Ledger
	dispatcher domain.Dispatcher
	clock      func() time.Time
	logger     *zap.Logger
}

func NewContainerService(store storage.Storage, ledger *Ledger, dispatcher domain.Dispatcher, clock func() time.Time, logger *zap.Logger) *ContainerService {
	if clock == nil {
		clock = time.Now
	}
	return &ContainerService{
		store:      store,
		ledger:     ledger,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     logger,
	}
}

func (s *ContainerService) Register(ctx context.Context, actor domain.Actor, spec RegisterSpec) (*repository.Container, error) {
	if !actor.Is(domain.RoleForwarder) {
		return nil, domain.Errorf(domain.ErrForbidden, "only forwarders register containers")
	}

	size := strings.ToUpper(strings.TrimSpace(spec.Size))
	capacity := spec.TotalCapacity
	if c, ok := sizeCapacity[size]; ok && capacity == 0 {
		capacity = c
	}
	switch {
	case !repository.ValidCbm(capacity):
		return nil, domain.Errorf(domain.ErrValidation, "container size or a capacity with at most three decimals is required")
	case spec.DeparturePort == "" || spec.ArrivalPort == "":
		return nil, domain.Errorf(domain.ErrValidation, "departure and arrival ports are required")
	case spec.Etd.IsZero() || spec.Eta.IsZero():
		return nil, domain.Errorf(domain.ErrValidation, "etd and eta are required")
	case !spec.Eta.After(spec.Etd):
		return nil, domain.Errorf(domain.ErrValidation, "eta must be after etd")
	}

	now := s.clock().UTC()
	c := &repository.Container{
		OwnerID:       actor.ID,
		Size:          size,
		DeparturePort: spec.DeparturePort,
		ArrivalPort:   spec.ArrivalPort,
		TotalCapacity: capacity,
		Etd:           spec.Etd.UTC(),
		Eta:           spec.Eta.UTC(),
		Status:        repository.ContainerRegistered,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		for attempt := 0; attempt < 5; attempt++ {
			c.ID = newContainerID()
			err := tx.CreateContainer(ctx, c)
			if !errors.Is(err, repository.ErrConflict) {
				return err
			}
		}
		return fmt.Errorf("failed to allocate a container id")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("container registered", zap.String("container_id", c.ID), zap.String("owner_id", c.OwnerID), zap.Float64("capacity", c.TotalCapacity))
	return c, nil
}

func newContainerID() string {
	return fmt.Sprintf("SEAU%07d", uuid.New().ID()%10_000_000)
}

// Confirm attaches the vessel identifier and locks the container's bookings.
func (s *ContainerService) Confirm(ctx context.Context, actor domain.Actor, containerID, vesselID string) (*repository.Container, error) {
	vesselID = strings.TrimSpace(vesselID)
	if vesselID == "" {
		return nil, domain.Errorf(domain.ErrValidation, "a vessel identifier is required to confirm a container")
	}
	return s.advance(ctx, actor, containerID, repository.ContainerRegistered, &vesselID)
}

func (s *ContainerService) Ship(ctx context.Context, actor domain.Actor, containerID string) (*repository.Container, error) {
	return s.advance(ctx, actor, containerID, repository.ContainerConfirmed, nil)
}

func (s *ContainerService) Complete(ctx context.Context, actor domain.Actor, containerID string) (*repository.Container, error) {
	return s.advance(ctx, actor, containerID, repository.ContainerShipped, nil)
}

func (s *ContainerService) Settle(ctx context.Context, actor domain.Actor, containerID string) (*repository.Container, error) {
	return s.advance(ctx, actor, containerID, repository.ContainerCompleted, nil)
}

func (s *ContainerService) advance(ctx context.Context, actor domain.Actor, containerID string, from repository.ContainerStatus, vesselID *string) (*repository.Container, error) {
	to := next[from]
	var updated *repository.Container

	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		// Requests are locked before the container, the same order bidding uses.
		parties, err := ShipmentParties(ctx, tx, containerID)
		if err != nil {
			return err
		}
		c, err := s.owned(ctx, tx, actor, containerID)
		if err != nil {
			return err
		}
		if c.Status != from {
			return domain.Errorf(domain.ErrValidation, "container %s is %s, it must be %s to become %s", containerID, c.Status, from, to)
		}
		if from == repository.ContainerRegistered && (c.BiddingCbm > 0 || c.RegisteringCbm > 0) {
			return domain.Errorf(domain.ErrValidation, "container %s still has pending bids or open resales", containerID)
		}

		if err := tx.UpdateContainerStatus(ctx, containerID, from, to, vesselID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return domain.Errorf(domain.ErrAlreadyDecided, "container %s changed concurrently", containerID)
			}
			return err
		}
		c.Status = to
		if vesselID != nil {
			c.VesselID = vesselID
		}
		updated = c
		return s.dispatcher.Dispatch(ctx, tx, domain.ContainerStatusChanged{Container: *c, From: from, Parties: parties})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("container status changed",
		zap.String("container_id", containerID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return updated, nil
}

// ShipmentParties lists every requester whose cargo rides in the container,
// following resale requests up to the original shipper. Cargo whose request
// was resold left the container and is skipped.
func ShipmentParties(ctx context.Context, tx storage.Tx, containerID string) ([]domain.ShipmentParty, error) {
	offers, err := tx.ListOffersByContainer(ctx, containerID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var parties []domain.ShipmentParty
	for _, offer := range offers {
		if offer.Status != repository.OfferAccepted || seen[offer.RequestID] {
			continue
		}
		req, err := tx.GetRequest(ctx, offer.RequestID)
		if err != nil {
			return nil, fmt.Errorf("failed to read request %d: %w", offer.RequestID, err)
		}
		if req.Status == repository.RequestResold {
			continue
		}

		for !seen[req.ID] {
			seen[req.ID] = true
			parties = append(parties, domain.ShipmentParty{RequestID: req.ID, RequesterID: req.RequesterID, RequesterRole: req.RequesterRole})
			if req.SourceOfferID == nil {
				break
			}
			source, err := tx.GetOffer(ctx, *req.SourceOfferID)
			if err != nil {
				return nil, fmt.Errorf("failed to walk resale chain at offer %d: %w", *req.SourceOfferID, err)
			}
			if req, err = tx.GetRequest(ctx, source.RequestID); err != nil {
				return nil, fmt.Errorf("failed to walk resale chain at request %d: %w", source.RequestID, err)
			}
		}
	}
	return parties, nil
}

// Delete removes a container that never carried or reserved any cargo.
func (s *ContainerService) Delete(ctx context.Context, actor domain.Actor, containerID string) error {
	return s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		c, err := s.owned(ctx, tx, actor, containerID)
		if err != nil {
			return err
		}
		if c.Status != repository.ContainerRegistered {
			return domain.Errorf(domain.ErrValidation, "container %s is %s and can no longer be deleted", containerID, c.Status)
		}
		if c.ConfirmedCbm > 0 || c.RegisteringCbm > 0 || c.BiddingCbm > 0 {
			return domain.Errorf(domain.ErrValidation, "container %s still holds cargo or reservations", containerID)
		}
		if err := tx.DeleteContainer(ctx, containerID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return domain.Errorf(domain.ErrAlreadyDecided, "container %s changed concurrently", containerID)
			}
			return err
		}
		return nil
	})
}

type ExternalCargoSpec struct {
	Name     string  `json:"name"`
	Cbm      float64 `json:"cbm"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// AddExternalCargo books cargo sold outside the marketplace into the container.
func (s *ContainerService) AddExternalCargo(ctx context.Context, actor domain.Actor, containerID string, spec ExternalCargoSpec) (*repository.ExternalCargo, error) {
	switch {
	case !repository.ValidCbm(spec.Cbm):
		return nil, domain.Errorf(domain.ErrValidation, "cbm must be positive with at most three decimals")
	case strings.TrimSpace(spec.Name) == "":
		return nil, domain.Errorf(domain.ErrValidation, "cargo name is required")
	case spec.Price < 0:
		return nil, domain.Errorf(domain.ErrValidation, "price must not be negative")
	}

	cargo := &repository.ExternalCargo{
		ContainerID: containerID,
		Name:        strings.TrimSpace(spec.Name),
		Cbm:         spec.Cbm,
		Price:       spec.Price,
		Currency:    strings.ToUpper(strings.TrimSpace(spec.Currency)),
		CreatedAt:   s.clock().UTC(),
	}
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		c, err := s.owned(ctx, tx, actor, containerID)
		if err != nil {
			return err
		}
		if c.Status != repository.ContainerRegistered {
			return domain.Errorf(domain.ErrValidation, "container %s is %s and no longer takes cargo", containerID, c.Status)
		}
		if err := s.ledger.LoadExternal(ctx, tx, containerID, spec.Cbm); err != nil {
			return err
		}
		return tx.CreateExternalCargo(ctx, cargo)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("external cargo loaded", zap.String("container_id", containerID), zap.Int64("cargo_id", cargo.ID), zap.Float64("cbm", cargo.Cbm))
	return cargo, nil
}

// RemoveExternalCargo takes external cargo back out of a REGISTERED container.
func (s *ContainerService) RemoveExternalCargo(ctx context.Context, actor domain.Actor, containerID string, cargoID int64) error {
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		c, err := s.owned(ctx, tx, actor, containerID)
		if err != nil {
			return err
		}
		cargo, err := tx.GetExternalCargo(ctx, cargoID)
		if err != nil {
			if errors.Is(err, repository.ErrObjectNotFound) {
				return domain.Errorf(domain.ErrNotFound, "external cargo %d", cargoID)
			}
			return err
		}
		if cargo.ContainerID != containerID {
			return domain.Errorf(domain.ErrNotFound, "external cargo %d in container %s", cargoID, containerID)
		}
		if c.Status != repository.ContainerRegistered {
			return domain.Errorf(domain.ErrValidation, "container %s is %s and its cargo is locked", containerID, c.Status)
		}
		if err := tx.DeleteExternalCargo(ctx, cargoID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return domain.Errorf(domain.ErrAlreadyDecided, "external cargo %d was removed concurrently", cargoID)
			}
			return err
		}
		return s.ledger.UnloadExternal(ctx, tx, containerID, cargo.Cbm)
	})
	if err != nil {
		return err
	}

	s.logger.Info("external cargo removed", zap.String("container_id", containerID), zap.Int64("cargo_id", cargoID))
	return nil
}

// CargoLine is one consignment loaded into a container.
type CargoLine struct {
	OfferID         int64                    `json:"offerId,omitempty"`
	RequestID       int64                    `json:"requestId,omitempty"`
	ExternalCargoID int64                    `json:"externalCargoId,omitempty"`
	ItemName        string                   `json:"itemName"`
	Cbm             float64                  `json:"cbm"`
	Price           float64                  `json:"price"`
	Currency        string                   `json:"currency"`
	Status          string                   `json:"status"`
	External        bool                     `json:"external"`
	Deadline        *time.Time               `json:"deadline,omitempty"`
	ResaleRequestID int64                    `json:"resaleRequestId,omitempty"`
	RequestStatus   repository.RequestStatus `json:"requestStatus,omitempty"`
}

type ContainerDetails struct {
	Container *repository.Container `json:"container"`
	Cargo     []CargoLine           `json:"cargo"`
}

// Details lists what rides in the container: won offers, including those
// listed for resale, plus external cargo. Offers whose request was resold
// and offers that lost or are still pending are left out.
func (s *ContainerService) Details(ctx context.Context, actor domain.Actor, containerID string) (*ContainerDetails, error) {
	c, err := s.store.GetContainer(ctx, containerID)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, domain.Errorf(domain.ErrNotFound, "container %s", containerID)
		}
		return nil, err
	}
	if c.OwnerID != actor.ID {
		return nil, domain.Errorf(domain.ErrForbidden, "container %s belongs to another forwarder", containerID)
	}

	offers, err := s.store.ListOffersByContainer(ctx, containerID)
	if err != nil {
		return nil, err
	}
	details := &ContainerDetails{Container: c, Cargo: []CargoLine{}}
	for _, o := range offers {
		if o.Status != repository.OfferAccepted {
			continue
		}
		req, err := s.store.GetRequest(ctx, o.RequestID)
		if err != nil {
			return nil, fmt.Errorf("failed to read request %d: %w", o.RequestID, err)
		}
		if req.Status == repository.RequestResold {
			continue
		}
		line := CargoLine{
			OfferID:       o.ID,
			RequestID:     req.ID,
			ItemName:      req.ItemName,
			Cbm:           o.Cbm,
			Price:         o.Price,
			Currency:      o.Currency,
			Status:        string(c.Status),
			Deadline:      &req.Deadline,
			RequestStatus: req.Status,
		}
		resales, err := s.store.ListResales(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range resales {
			if r.Status == repository.RequestOpen {
				line.ResaleRequestID = r.ID
				line.Status = "FOR_SALE"
				break
			}
		}
		details.Cargo = append(details.Cargo, line)
	}

	external, err := s.store.ListExternalCargo(ctx, containerID)
	if err != nil {
		return nil, err
	}
	for _, e := range external {
		details.Cargo = append(details.Cargo, CargoLine{
			ExternalCargoID: e.ID,
			ItemName:        e.Name,
			Cbm:             e.Cbm,
			Price:           e.Price,
			Currency:        e.Currency,
			Status:          string(c.Status),
			External:        true,
		})
	}
	return details, nil
}

func (s *ContainerService) List(ctx context.Context, actor domain.Actor) ([]*repository.Container, error) {
	return s.store.ListContainersByOwner(ctx, actor.ID)
}

func (s *ContainerService) owned(ctx context.Context, tx storage.Tx, actor domain.Actor, containerID string) (*repository.Container, error) {
	c, err := tx.GetContainer(ctx, containerID)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, domain.Errorf(domain.ErrNotFound, "container %s", containerID)
		}
		return nil, err
	}
	if c.OwnerID != actor.ID {
		return nil, domain.Errorf(domain.ErrForbidden, "container %s belongs to another forwarder", containerID)
	}
	return c, nil
}
