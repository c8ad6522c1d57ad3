package bidding

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

type RequestSpec struct {
	ItemName           string     `json:"itemName"`
	Incoterms          string     `json:"incoterms"`
	TradeType          string     `json:"tradeType"`
	TransportType      string     `json:"transportType"`
	DeparturePort      string     `json:"departurePort"`
	ArrivalPort        string     `json:"arrivalPort"`
	Cbm                float64    `json:"cbm"`
	Deadline           time.Time  `json:"deadline"`
	DesiredArrivalDate *time.Time `json:"desiredArrivalDate,omitempty"`
}

func (spec RequestSpec) validate(now time.Time) error {
	required := []struct{ name, value string }{
		{"itemName", spec.ItemName},
		{"incoterms", spec.Incoterms},
		{"tradeType", spec.TradeType},
		{"transportType", spec.TransportType},
		{"departurePort", spec.DeparturePort},
		{"arrivalPort", spec.ArrivalPort},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return domain.Errorf(domain.ErrValidation, "missing fields: %s", strings.Join(missing, ", "))
	}
	if !repository.ValidCbm(spec.Cbm) {
		return domain.Errorf(domain.ErrValidation, "cbm must be positive with at most three decimals")
	}
	if !spec.Deadline.After(now) {
		return domain.Errorf(domain.ErrValidation, "deadline must be in the future")
	}
	return nil
}

// CreateRequest posts a new OPEN cargo request on behalf of a shipper or forwarder.
func (s *Service) CreateRequest(ctx context.Context, actor domain.Actor, spec RequestSpec) (*repository.CargoRequest, error) {
	if !actor.Is(domain.RoleShipper) && !actor.Is(domain.RoleForwarder) {
		return nil, domain.Errorf(domain.ErrForbidden, "role %s cannot post requests", actor.Role)
	}
	now := s.now()
	if err := spec.validate(now); err != nil {
		return nil, err
	}

	req := &repository.CargoRequest{
		ItemName:           strings.TrimSpace(spec.ItemName),
		Incoterms:          spec.Incoterms,
		TradeType:          spec.TradeType,
		TransportType:      spec.TransportType,
		DeparturePort:      spec.DeparturePort,
		ArrivalPort:        spec.ArrivalPort,
		Cbm:                spec.Cbm,
		Deadline:           spec.Deadline.UTC(),
		DesiredArrivalDate: spec.DesiredArrivalDate,
		RequesterID:        actor.ID,
		RequesterRole:      string(actor.Role),
		Status:             repository.RequestOpen,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.CreateRequest(ctx, req); err != nil {
			return err
		}
		return s.dispatcher.Dispatch(ctx, tx, domain.RequestCreated{Request: *req})
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("create_request").Inc()
		return nil, err
	}

	metrics.RequestsCreatedTotal.Inc()
	s.logger.Info("request created", zap.Int64("request_id", req.ID), zap.String("requester_id", req.RequesterID), zap.Float64("cbm", req.Cbm))
	return req, nil
}

func (s *Service) GetRequest(ctx context.Context, id int64) (*repository.CargoRequest, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, domain.Errorf(domain.ErrNotFound, "request %d", id)
		}
		return nil, err
	}
	return req, nil
}

func (s *Service) ListMyRequests(ctx context.Context, actor domain.Actor) ([]*repository.CargoRequest, error) {
	return s.store.ListRequestsByRequester(ctx, actor.ID)
}

// ListOffers returns the bids on a request; only its owner and admins see them.
func (s *Service) ListOffers(ctx context.Context, actor domain.Actor, requestID int64) ([]*repository.Offer, error) {
	req, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequesterID != actor.ID && !actor.Is(domain.RoleAdmin) {
		return nil, domain.Errorf(domain.ErrForbidden, "request %d belongs to another user", requestID)
	}
	return s.store.ListOffersByRequest(ctx, requestID)
}

func (s *Service) ListMyOffers(ctx context.Context, actor domain.Actor) ([]*repository.Offer, error) {
	return s.store.ListOffersByForwarder(ctx, actor.ID)
}
