package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/upb/onboarding-platform/backend/repositories/postgres"
	"go.uber.org/zap"
)

// PostgresLimiter is a sliding-window limiter backed by the
// rate_limit_events table, so limits are shared between instances.
// Each check holds a transaction-scoped advisory lock on the scope key so
// concurrent requests for the same client are counted one at a time.
type PostgresLimiter struct {
	db     *sql.DB
	policy Policy
	logger *zap.Logger
	now    func() time.Time
}

// NewPostgresLimiter creates a new PostgresLimiter instance
func NewPostgresLimiter(db *sql.DB, policy Policy, logger *zap.Logger) *PostgresLimiter {
	return &PostgresLimiter{
		db:     db,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// Allow checks the requests recorded for key within the window ending now
// and records this one when it is allowed.
func (l *PostgresLimiter) Allow(ctx context.Context, key string) (*Decision, error) {
	if !l.policy.Enabled() {
		return unlimited(), nil
	}

	var decision *Decision
	err := postgres.InTransaction(ctx, l.db, l.logger, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("failed to lock rate limit scope: %w", err)
		}

		// the clock is read under the lock so events inserted by the
		// previous holder fall inside this window
		var err error
		decision, err = l.check(ctx, tx, key, l.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return decision, nil
}

// check counts the events for key since now minus the window and records
// a new one when the request is allowed.
func (l *PostgresLimiter) check(ctx context.Context, tx *sql.Tx, key string, now time.Time) (*Decision, error) {
	windowStart := now.Add(-l.policy.Window)

	query := `SELECT COUNT(*), MIN(timestamp) FROM rate_limit_events WHERE scope_key = $1 AND timestamp >= $2`

	var count int
	var oldest sql.NullTime
	if err := tx.QueryRowContext(ctx, query, key, windowStart).Scan(&count, &oldest); err != nil {
		return nil, fmt.Errorf("failed to query rate limit: %w", err)
	}

	resetAt := now.Add(l.policy.Window)
	if oldest.Valid {
		resetAt = oldest.Time.Add(l.policy.Window)
	}

	if count >= l.policy.MaxRequests {
		return &Decision{
			Allowed:   false,
			Limit:     l.policy.MaxRequests,
			Remaining: 0,
			ResetAt:   resetAt,
		}, nil
	}

	if err := recordEvent(ctx, tx, key, now); err != nil {
		return nil, err
	}

	return &Decision{
		Allowed:   true,
		Limit:     l.policy.MaxRequests,
		Remaining: l.policy.MaxRequests - count - 1,
		ResetAt:   resetAt,
	}, nil
}

// recordEvent records a rate limit event
func recordEvent(ctx context.Context, tx *sql.Tx, key string, timestamp time.Time) error {
	query := `INSERT INTO rate_limit_events (scope_key, timestamp) VALUES ($1, $2)`

	if _, err := tx.ExecContext(ctx, query, key, timestamp); err != nil {
		return fmt.Errorf("failed to insert rate limit event: %w", err)
	}
	return nil
}

// CleanupOldEvents removes events older than the given age to keep the
// table small.
func (l *PostgresLimiter) CleanupOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoffTime := l.now().Add(-olderThan)

	result, err := l.db.ExecContext(ctx, `DELETE FROM rate_limit_events WHERE timestamp < $1`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	l.logger.Info("cleaned up old rate limit events",
		zap.Int64("rows_deleted", rowsAffected),
		zap.Time("cutoff_time", cutoffTime))

	return rowsAffected, nil
}

// StartCleanupWorker periodically removes events older than retention
// until ctx is done.
func (l *PostgresLimiter) StartCleanupWorker(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.logger.Info("started rate limit cleanup worker",
		zap.Duration("interval", interval),
		zap.Duration("retention", retention))

	for {
		select {
		case <-ticker.C:
			if _, err := l.CleanupOldEvents(ctx, retention); err != nil {
				l.logger.Error("failed to cleanup old events", zap.Error(err))
			}
		case <-ctx.Done():
			l.logger.Info("stopping rate limit cleanup worker")
			return
		}
	}
}
