package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper closes requests whose deadline has passed.
type Sweeper interface {
	ExpireOverdueRequests(ctx context.Context) (int, error)
}

// Scheduler runs the deadline sweep on a cron schedule. A run that is still
// going when the next tick fires makes that tick a no-op.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  *zap.Logger
	busy    atomic.Bool
}

func New(sweeper Sweeper, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		sweeper: sweeper,
		logger:  logger,
	}
}

// Start schedules the sweep and blocks until ctx ends.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid expiry schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("deadline sweep scheduled", zap.String("schedule", schedule))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("deadline sweep stopped")
	return nil
}

// RunOnce runs a sweep unless one is already running. It reports whether it ran.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.busy.CompareAndSwap(false, true) {
		s.logger.Debug("deadline sweep still running, skipping tick")
		return false
	}
	defer s.busy.Store(false)

	if _, err := s.sweeper.ExpireOverdueRequests(ctx); err != nil {
		s.logger.Error("deadline sweep failed", zap.Error(err))
	}
	return true
}
