package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "gitlab.ozon.dev/pupkingeorgij/freightbid/internal/db/mocks"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository/postgresql"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

func TestPostgresStorage_InTxReplaysAbortedTransactions(t *testing.T) {
	deadlock := &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
	serialization := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	unique := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}

	tests := []struct {
		name         string
		commitErrs   []error
		fnErr        error
		wantAttempts int
		wantHooks    int
		wantCode     string
	}{
		{
			name:         "commits first time",
			commitErrs:   []error{nil},
			wantAttempts: 1,
			wantHooks:    1,
		},
		{
			name:         "deadlock on commit is replayed",
			commitErrs:   []error{deadlock, nil},
			wantAttempts: 2,
			wantHooks:    1,
		},
		{
			name:         "serialization failure is replayed",
			commitErrs:   []error{serialization, serialization, nil},
			wantAttempts: 3,
			wantHooks:    1,
		},
		{
			name:         "gives up after three attempts",
			commitErrs:   []error{deadlock, deadlock, deadlock},
			wantAttempts: 3,
			wantCode:     "40P01",
		},
		{
			name:         "other errors are not replayed",
			fnErr:        unique,
			wantAttempts: 1,
			wantCode:     "23505",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockDB := mock_database.NewMockDB(ctrl)
			mockTx := mock_database.NewMockTx(ctrl)
			store := storage.NewPostgresStorage(mockDB, postgresql.NewOutboxTaskRepo(5))

			mockDB.EXPECT().BeginTx(gomock.Any()).Return(mockTx, nil).Times(tc.wantAttempts)
			mockTx.EXPECT().Rollback(gomock.Any()).Return(nil).AnyTimes()
			for _, err := range tc.commitErrs {
				mockTx.EXPECT().Commit(gomock.Any()).Return(err)
			}

			attempts, hooks := 0, 0
			err := store.InTx(context.Background(), func(ctx context.Context, tx storage.Tx) error {
				attempts++
				tx.AfterCommit(func(context.Context) { hooks++ })
				return tc.fnErr
			})

			assert.Equal(t, tc.wantAttempts, attempts)
			assert.Equal(t, tc.wantHooks, hooks)
			if tc.wantCode == "" {
				require.NoError(t, err)
				return
			}
			var pgErr *pgconn.PgError
			require.True(t, errors.As(err, &pgErr))
			assert.Equal(t, tc.wantCode, pgErr.Code)
		})
	}
}
