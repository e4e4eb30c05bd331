package worker

import (
	"context"
	"log/slog"
	"time"

	"fintrack/internal/ports"
)

// TokenJanitor periodically drops revoked tokens that have expired.
type TokenJanitor struct {
	store    ports.TokenRevocationStore
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewTokenJanitor(store ports.TokenRevocationStore, interval time.Duration, logger *slog.Logger) *TokenJanitor {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenJanitor{store: store, interval: interval, now: time.Now, logger: logger}
}

// Purge runs one pass and returns the number of rows removed.
func (j *TokenJanitor) Purge(ctx context.Context) (int64, error) {
	n, err := j.store.PurgeExpiredTokens(ctx, j.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		j.logger.InfoContext(ctx, "Purged expired revoked tokens", "component", "worker", "count", n)
	}
	return n, nil
}

// Run purges on every tick until ctx is done.
func (j *TokenJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Purge(ctx); err != nil {
				j.logger.ErrorContext(ctx, "Token purge failed", "component", "worker", "error", err)
			}
		}
	}
}
