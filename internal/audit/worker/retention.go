// Package worker runs the background retention sweep. The sweep calls the
// ledger's cleanup on an interval, using the retention days configured in
// the security settings at sweep time.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner is the slice of the ledger this worker drives.
type Cleaner interface {
	CleanupOldLogs(ctx context.Context, days int, requestedBy string) (int, error)
}

// RetentionDaysSource yields the currently configured retention horizon.
type RetentionDaysSource func(ctx context.Context) int

type Retention struct {
	cleaner  Cleaner
	days     RetentionDaysSource
	interval time.Duration
	logger   *slog.Logger
}

func NewRetention(cleaner Cleaner, days RetentionDaysSource, interval time.Duration, logger *slog.Logger) *Retention {
	return &Retention{cleaner: cleaner, days: days, interval: interval, logger: logger}
}

// Run sweeps until the context is cancelled. Sweep failures are logged and
// the loop continues; the next tick retries.
func (r *Retention) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			days := r.days(ctx)
			if days <= 0 {
				continue
			}
			deleted, err := r.cleaner.CleanupOldLogs(ctx, days, "retention-worker")
			if err != nil {
				r.logger.ErrorContext(ctx, "retention sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				r.logger.InfoContext(ctx, "retention sweep completed",
					"deleted", deleted,
					"older_than_days", days,
				)
			}
		}
	}
}
