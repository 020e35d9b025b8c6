package recon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tikflow-ledger-go/internal/database"
	"tikflow-ledger-go/internal/store"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// runUnit executes one atomic unit, retrying transparently on optimistic
// concurrency aborts with doubling backoff. Exhausted retries surface as
// store.ErrInternalConflict rather than blocking the caller.
func (c *Coordinator) runUnit(ctx context.Context, op string, fn func(u *database.Unit) error) error {
	backoff := c.cfg.RetryBackoff
	var err error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			zap.L().Warn("Retrying conflicted unit",
				zap.String("operation", op),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		err = c.db.RunUnit(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
	}

	zap.L().Error("Atomic unit failed after retries",
		zap.String("operation", op),
		zap.Int("retries", c.cfg.MaxRetries),
		zap.Error(err))
	return fmt.Errorf("%s: %w", op, store.ErrInternalConflict)
}

func isRetryable(err error) bool {
	if errors.Is(err, store.ErrConcurrentModification) {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
