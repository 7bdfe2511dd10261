package database

import (
	"context"
	"fmt"
)

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back when fn returns an error or panics.
//
//	err := WithTx(ctx, db, func(q Querier) error {
//	    if _, err := q.Exec(ctx, stmt1, a); err != nil {
//	        return err
//	    }
//	    _, err := q.Exec(ctx, stmt2, b)
//	    return err
//	})
func WithTx(ctx context.Context, db Database, fn func(q Querier) error) (err error) {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}
