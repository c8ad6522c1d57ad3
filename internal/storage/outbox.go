package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

type OutboxTaskRepository interface {
	CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error
	GetProcessableTasksTx(ctx context.Context, tx db.Tx, limit int) ([]*repository.OutboxTask, error)
	UpdateTaskStatusTx(ctx context.Context, tx db.Tx, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
	UpdateTaskStatus(ctx context.Context, db db.DB, id uuid.UUID, status repository.TaskStatus, attempts int, lastError *string, completedAt *time.Time) error
}
