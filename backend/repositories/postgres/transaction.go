package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// TxFunc is the unit of work run by InTransaction
type TxFunc func(ctx context.Context, tx *sql.Tx) error

// InTransaction executes fn within a transaction.
// Commits if fn succeeds, rolls back on error.
func InTransaction(ctx context.Context, db *sql.DB, logger *zap.Logger, fn TxFunc) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("failed to rollback transaction",
				zap.Error(rbErr),
				zap.NamedError("original_error", err),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// InTransaction executes fn within a transaction on db
func (db *DB) InTransaction(ctx context.Context, fn TxFunc) error {
	return InTransaction(ctx, db.DB, db.logger, fn)
}
