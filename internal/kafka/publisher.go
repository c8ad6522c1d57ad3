package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

type PublisherConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

// Publisher relays outbox tasks to the event stream.
type Publisher struct {
	db             db.DB
	repo           storage.OutboxTaskRepository
	producer       Producer
	config         PublisherConfig
	logger         *zap.Logger
	wg             sync.WaitGroup
	shutdownSignal chan struct{}
	stopOnce       sync.Once
}

func NewPublisher(db db.DB, repo storage.OutboxTaskRepository, producer Producer, config PublisherConfig, logger *zap.Logger) *Publisher {
	return &Publisher{
		db:             db,
		repo:           repo,
		producer:       producer,
		config:         config,
		logger:         logger,
		shutdownSignal: make(chan struct{}),
	}
}

func (p *Publisher) Run(ctx context.Context) {
	p.logger.Info("starting outbox publisher", zap.Duration("poll_interval", p.config.PollInterval))
	p.wg.Add(1)
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error("outbox publisher failed to process batch", zap.Error(err))
			}
		case <-p.shutdownSignal:
			p.logger.Info("outbox publisher received shutdown signal, stopping")
			return
		case <-ctx.Done():
			p.logger.Info("outbox publisher context cancelled, stopping")
			return
		}
	}
}

func (p *Publisher) Shutdown() {
	p.stopOnce.Do(func() {
		p.logger.Info("initiating outbox publisher shutdown")
		close(p.shutdownSignal)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			p.logger.Info("outbox publisher shutdown complete")
		case <-shutdownCtx.Done():
			p.logger.Warn("outbox publisher shutdown timed out")
		}

		if err := p.producer.Close(); err != nil {
			p.logger.Error("failed to close event producer", zap.Error(err))
		}
	})
}

func (p *Publisher) processBatch(ctx context.Context) error {
	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for fetching tasks: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	tasks, err := p.repo.GetProcessableTasksTx(ctx, tx, p.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to get processable tasks: %w", err)
	}

	if len(tasks) == 0 {
		return tx.Commit(ctx)
	}

	p.logger.Debug("outbox publisher fetched tasks", zap.Int("count", len(tasks)))

	for _, task := range tasks {
		err := p.repo.UpdateTaskStatusTx(ctx, tx, task.ID, repository.TaskStatusProcessing, task.Attempts, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to mark task %s as PROCESSING: %w", task.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction after marking tasks as PROCESSING: %w", err)
	}

	for _, task := range tasks {
		select {
		case <-p.shutdownSignal:
			p.logger.Warn("shutdown during batch processing", zap.Stringer("task_id", task.ID))
			return errors.New("publisher shutdown during batch processing")
		case <-ctx.Done():
			p.logger.Warn("context cancelled during batch processing", zap.Stringer("task_id", task.ID))
			return ctx.Err()
		default:
		}

		if err := p.processSingleTask(ctx, task); err != nil {
			p.logger.Error("failed to process outbox task", zap.Stringer("task_id", task.ID), zap.Error(err))
		}
	}

	return nil
}

func (p *Publisher) processSingleTask(ctx context.Context, task *repository.OutboxTask) error {
	key := []byte(task.Key)
	if len(key) == 0 {
		key = []byte(task.ID.String())
	}

	err := p.producer.SendMessage(ctx, task.Topic, key, task.Payload)
	if err != nil {
		metrics.OutboxPublishedTotal.WithLabelValues("failed").Inc()
		newAttempts := task.Attempts + 1
		errMsg := err.Error()

		if newAttempts >= p.config.MaxAttempts {
			p.logger.Error("outbox task reached max attempts, marking as FAILED permanently",
				zap.Stringer("task_id", task.ID),
				zap.Int("attempts", newAttempts),
			)
		}

		updateErr := p.repo.UpdateTaskStatus(ctx, p.db, task.ID, repository.TaskStatusFailed, newAttempts, &errMsg, nil)
		if updateErr != nil {
			return fmt.Errorf("failed to update task status after send failure: %w (send error: %v)", updateErr, err)
		}
		return err
	}

	metrics.OutboxPublishedTotal.WithLabelValues("done").Inc()
	now := time.Now().UTC()
	if err := p.repo.UpdateTaskStatus(ctx, p.db, task.ID, repository.TaskStatusDone, task.Attempts, nil, &now); err != nil {
		return fmt.Errorf("failed to update task status after successful send: %w", err)
	}
	return nil
}
