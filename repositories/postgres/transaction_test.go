package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/otisthings/hub-sub000/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTxManager(t *testing.T) (repositories.TransactionManager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newTestDB(t)
	return NewTransactionManager(db, zap.NewNop()), mock
}

func TestTransactionManager_InTransactionCommits(t *testing.T) {
	ctx := context.Background()
	db, mock := newTestDB(t)
	mgr := NewTransactionManager(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE submissions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := mgr.InTransaction(ctx, func(txCtx context.Context, tx repositories.Transaction) error {
		// Repository calls made with the callback context must run on
		// the transaction, not the pool.
		executor := GetExecutor(txCtx, db)
		require.NotEqual(t, db.DB, executor)

		_, execErr := executor.ExecContext(txCtx, "UPDATE submissions SET status = 'approved'")
		return execErr
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_InTransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	mgr, mock := newTestTxManager(t)
	opErr := errors.New("role grant failed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := mgr.InTransaction(ctx, func(txCtx context.Context, tx repositories.Transaction) error {
		return opErr
	})

	assert.Equal(t, opErr, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_InTransactionRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	mgr, mock := newTestTxManager(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = mgr.InTransaction(ctx, func(txCtx context.Context, tx repositories.Transaction) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetExecutor_FallsBackToPool(t *testing.T) {
	db, _ := newTestDB(t)

	executor := GetExecutor(context.Background(), db)
	assert.Equal(t, db.DB, executor)
}
