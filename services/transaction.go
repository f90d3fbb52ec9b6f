package services

import (
	"context"

	"github.com/otisthings/hub-sub000/repositories"
)

// WithTransaction executes fn within a database transaction. The context
// passed to fn carries the transaction, so repository calls made through it
// share the same unit of work. Commits on success, rolls back on error.
func WithTransaction(ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return txMgr.InTransaction(ctx, fn)
}

// WithTransactionResult executes fn within a database transaction and returns
// its result. Uses generics to support any return type.
func WithTransactionResult[T any](ctx context.Context, txMgr repositories.TransactionManager, fn func(ctx context.Context, tx repositories.Transaction) (T, error)) (T, error) {
	var result T
	err := txMgr.InTransaction(ctx, func(ctx context.Context, tx repositories.Transaction) error {
		var fnErr error
		result, fnErr = fn(ctx, tx)
		return fnErr
	})
	return result, err
}
