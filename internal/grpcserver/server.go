package grpcserver

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
)

const ServiceName = "freightbid.Marketplace"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the standard gRPC health protocol for the marketplace. The
// serving status follows the storage reachability.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	storage  Pinger
	interval time.Duration
	logger   *zap.Logger
}

func NewServer(storage Pinger, interval time.Duration, logger *zap.Logger) *Server {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	s := &Server{
		health:   health.NewServer(),
		storage:  storage,
		interval: interval,
		logger:   logger,
	}
	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	return s
}

// Run serves on port until ctx ends.
func (s *Server) Run(ctx context.Context, port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}

	go s.watch(ctx)
	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.grpc.GracefulStop()
	}()

	s.logger.Info("grpc server starting", zap.String("port", port))
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		s.Check(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Check pings storage once and publishes the result.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, s.interval/2)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.storage.Ping(pingCtx); err != nil {
		s.logger.Warn("storage unreachable", zap.Error(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	return st
}

func (s *Server) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	started := time.Now()
	resp, err := handler(ctx, req)
	err = ToStatus(err)
	s.logger.Debug("grpc call",
		zap.String("method", info.FullMethod),
		zap.Duration("duration", time.Since(started)),
		zap.String("code", status.Code(err).String()),
	)
	return resp, err
}

// ToStatus maps domain errors onto gRPC status codes.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyDecided):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, domain.ErrRequestClosed), errors.Is(err, domain.ErrResaleWindowClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded):
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
