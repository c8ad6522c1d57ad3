package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

type OutboxTaskRepo struct {
	maxAttempts int
}

func NewOutboxTaskRepo(maxAttempts int) *OutboxTaskRepo {
	return &OutboxTaskRepo{maxAttempts: maxAttempts}
}

func (r *OutboxTaskRepo) CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	now := time.Now().UTC()
	_, err := tx.Exec(ctx, `
        INSERT INTO outbox_tasks (id, status, payload, topic, key, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, task.ID, repository.TaskStatusCreated, task.Payload, task.Topic, task.Key, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert outbox task: %w", err)
	}
	return nil
}

// GetProcessableTasksTx claims CREATED tasks and FAILED ones still under the
// attempt limit; rows locked by another relay are skipped.
func (r *OutboxTaskRepo) GetProcessableTasksTx(ctx context.Context, tx db.Tx, limit int) ([]*repository.OutboxTask, error) {
	var tasks []*repository.OutboxTask
	err := tx.Select(ctx, &tasks, `
        SELECT id, status, payload, topic, key, attempts, last_error, created_at, updated_at, completed_at
        FROM outbox_tasks
        WHERE status = $1 OR (status = $2 AND attempts < $3)
        ORDER BY updated_at ASC
        LIMIT $4
        FOR UPDATE SKIP LOCKED
    `, repository.TaskStatusCreated, repository.TaskStatusFailed, r.maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get processable outbox tasks: %w", err)
	}
	return tasks, nil
}

func (r *OutboxTaskRepo) UpdateTaskStatusTx(ctx context.Context, tx db.Tx, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error {
	return r.updateTaskStatus(ctx, tx, id, status, attempts, lastError, completedAt)
}

func (r *OutboxTaskRepo) UpdateTaskStatus(ctx context.Context, db db.DB, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error {
	return r.updateTaskStatus(ctx, db, id, status, attempts, lastError, completedAt)
}

func (r *OutboxTaskRepo) updateTaskStatus(ctx context.Context, q querier, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error {
	tag, err := q.Exec(ctx, `
        UPDATE outbox_tasks
        SET status = $2, attempts = $3, last_error = $4, completed_at = $5, updated_at = $6
        WHERE id = $1
    `, id, status, attempts, lastError, completedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update outbox task status for id %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}
