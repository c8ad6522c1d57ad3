package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

// querier is the subset shared by db.DB and db.Tx.
type querier interface {
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrObjectNotFound
	}
	return err
}

func expectOneRow(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}
	return nil
}
