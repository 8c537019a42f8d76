package store

import (
	"context"
	"errors"
)

// Tx is the commit/rollback surface shared by the grove driver transactions.
type Tx interface {
	Commit() error
	Rollback() error
}

// RunTx begins a transaction, runs fn inside it and commits when fn
// returns nil. Any error from fn rolls the transaction back; a failed
// rollback is joined onto fn's error.
func RunTx[T Tx](ctx context.Context, begin func(context.Context) (T, error), fn func(T) error) error {
	tx, err := begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
