package grpcserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
)

type pinger struct {
	err error
}

func (p *pinger) Ping(context.Context) error {
	return p.err
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"validation", domain.Errorf(domain.ErrValidation, "cbm must be positive"), codes.InvalidArgument},
		{"forbidden", domain.Errorf(domain.ErrForbidden, "not the owner"), codes.PermissionDenied},
		{"not found", domain.Errorf(domain.ErrNotFound, "request 7"), codes.NotFound},
		{"already decided", domain.Errorf(domain.ErrAlreadyDecided, "request 7"), codes.Aborted},
		{"request closed", domain.Errorf(domain.ErrRequestClosed, "request 7"), codes.FailedPrecondition},
		{"resale window closed", domain.Errorf(domain.ErrResaleWindowClosed, "request 7"), codes.FailedPrecondition},
		{"capacity", domain.Errorf(domain.ErrCapacityExceeded, "SEAU0000001"), codes.ResourceExhausted},
		{"invalid state", domain.Errorf(domain.ErrInvalidState, "ledger commit"), codes.Internal},
		{"already a status", status.Error(codes.Unavailable, "down"), codes.Unavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, status.Code(ToStatus(tc.err)))
		})
	}

	assert.NoError(t, ToStatus(nil))
	st, _ := status.FromError(ToStatus(errors.New("pq: password authentication failed")))
	assert.Equal(t, "internal error", st.Message())
}

func TestServer_Check(t *testing.T) {
	storage := &pinger{}
	s := NewServer(storage, time.Second, zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, s.Check(ctx))
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	storage.err = errors.New("connection refused")
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, s.Check(ctx))
	resp, err = s.health.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
