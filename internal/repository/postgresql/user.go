package postgresql

import (
	"context"
	"fmt"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/db"
)

// UserRepo mirrors the users the authentication service vouched for. Rows
// only feed the dashboard counts.
type UserRepo struct {
	db db.DB
}

func NewUserRepo(db db.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	if err := r.db.Get(ctx, &count, "SELECT COUNT(*) FROM users WHERE role = $1", role); err != nil {
		return 0, fmt.Errorf("failed to count users with role %s: %w", role, err)
	}
	return count, nil
}

// Upsert records id with role, replacing the role of a known user.
func (r *UserRepo) Upsert(ctx context.Context, id, role string) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (id, role) VALUES ($1, $2)
        ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role
        WHERE users.role <> EXCLUDED.role
    `, id, role)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", id, err)
	}
	return nil
}
