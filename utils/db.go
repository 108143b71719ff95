package utils

import (
	"context"
	"database/sql"
)

// WithTx runs fn inside a transaction. The transaction is committed when fn
// succeeds and rolled back when it fails or panics.
func WithTx[T any](
	ctx context.Context,
	db *sql.DB,
	opts *sql.TxOptions,
	fn func(tx *sql.Tx) (T, error),
) (out T, err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return out, err
	}

	defer func() {
		if p := recover(); p != nil {
			rollback(tx)
			panic(p)
		}
		if err != nil {
			rollback(tx)
		}
	}()

	out, err = fn(tx)
	if err != nil {
		return out, err
	}
	// a failed commit is the error of the whole transaction
	err = tx.Commit()
	return out, err
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		logger.Errorf("transaction rollback error: %v", err)
	}
}
