package services

import (
	"context"
	"errors"
	"testing"

	"github.com/otisthings/hub-sub000/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxMarker struct{}

// stubTxManager runs the callback inline the way the real manager does:
// with a transaction-carrying context and a transaction handle.
type stubTxManager struct {
	beginErr error
	calls    int
	tx       stubTransaction
}

func (m *stubTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &m.tx, nil
}

func (m *stubTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	m.calls++
	if m.beginErr != nil {
		return m.beginErr
	}
	txCtx := context.WithValue(ctx, ctxMarker{}, true)
	if err := fn(txCtx, &m.tx); err != nil {
		m.tx.rolledback = true
		return err
	}
	m.tx.committed = true
	return nil
}

type stubTransaction struct {
	committed  bool
	rolledback bool
}

func (t *stubTransaction) Commit() error            { t.committed = true; return nil }
func (t *stubTransaction) Rollback() error          { t.rolledback = true; return nil }
func (t *stubTransaction) Context() context.Context { return context.Background() }

func TestWithTransaction_Success(t *testing.T) {
	mgr := &stubTxManager{}

	err := WithTransaction(context.Background(), mgr, func(ctx context.Context, tx repositories.Transaction) error {
		// The callback context must carry the transaction for the
		// repositories to pick up.
		assert.Equal(t, true, ctx.Value(ctxMarker{}))
		assert.NotNil(t, tx)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, mgr.calls)
	assert.True(t, mgr.tx.committed)
	assert.False(t, mgr.tx.rolledback)
}

func TestWithTransaction_ErrorInFunction(t *testing.T) {
	mgr := &stubTxManager{}
	expectedErr := errors.New("operation failed")

	err := WithTransaction(context.Background(), mgr, func(ctx context.Context, tx repositories.Transaction) error {
		return expectedErr
	})

	assert.Equal(t, expectedErr, err)
	assert.False(t, mgr.tx.committed)
	assert.True(t, mgr.tx.rolledback)
}

func TestWithTransaction_BeginError(t *testing.T) {
	mgr := &stubTxManager{beginErr: errors.New("failed to begin transaction")}

	err := WithTransaction(context.Background(), mgr, func(ctx context.Context, tx repositories.Transaction) error {
		t.Fatal("callback must not run")
		return nil
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
}

func TestWithTransactionResult_Success(t *testing.T) {
	mgr := &stubTxManager{}

	result, err := WithTransactionResult(context.Background(), mgr, func(ctx context.Context, tx repositories.Transaction) (string, error) {
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.True(t, mgr.tx.committed)
}

func TestWithTransactionResult_ErrorInFunction(t *testing.T) {
	mgr := &stubTxManager{}
	expectedErr := errors.New("operation failed")

	result, err := WithTransactionResult(context.Background(), mgr, func(ctx context.Context, tx repositories.Transaction) (string, error) {
		return "", expectedErr
	})

	assert.Equal(t, expectedErr, err)
	assert.Equal(t, "", result)
	assert.True(t, mgr.tx.rolledback)
}

func TestWithTransactionResult_BeginError(t *testing.T) {
	mgr := &stubTxManager{beginErr: errors.New("failed to begin transaction")}

	result, err := WithTransactionResult(context.Background(), mgr, func(ctx context.Context, tx repositories.Transaction) (int, error) {
		return 42, nil
	})

	assert.Error(t, err)
	assert.Equal(t, 0, result)
}
