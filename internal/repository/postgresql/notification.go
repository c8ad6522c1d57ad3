package postgresql

import (
	"context"
	"fmt"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

type NotificationRepo struct {
	db db.DB
}

func NewNotificationRepo(db db.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

func (r *NotificationRepo) CreateTx(ctx context.Context, tx db.Tx, n *repository.Notification) error {
	err := tx.Get(ctx, &n.ID, `
        INSERT INTO notifications (recipient_id, message, url, is_read, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `, n.RecipientID, n.Message, n.URL, n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) ListUnread(ctx context.Context, recipientID string) ([]*repository.Notification, error) {
	var ns []*repository.Notification
	err := r.db.Select(ctx, &ns, `
        SELECT id, recipient_id, message, url, is_read, created_at
        FROM notifications
        WHERE recipient_id = $1 AND is_read = FALSE
        ORDER BY created_at DESC
    `, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread notifications: %w", err)
	}
	return ns, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.Get(ctx, &count, "SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE", recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead returns repository.ErrObjectNotFound when the notification does not
// belong to recipientID. Marking an already read row is not an error.
func (r *NotificationRepo) MarkRead(ctx context.Context, id int64, recipientID string) error {
	tag, err := r.db.Exec(ctx, "UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2", id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrObjectNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	tag, err := r.db.Exec(ctx, "UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE", recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}
