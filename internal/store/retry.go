package store

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"
)

// isBusyError checks if the error is a SQLite concurrency error
// (SQLITE_BUSY or "database is locked") that warrants a retry.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// execWithBusyRetry executes a write with exponential backoff on
// SQLITE_BUSY. The WAL busy_timeout handles most contention; this covers
// the writes that race the stale-session sweeper.
func (s *SQLiteStore) execWithBusyRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	const maxRetries = 3
	baseDelay := 100 * time.Millisecond

	var result sql.Result
	var err error
	for i := 0; i < maxRetries; i++ {
		result, err = s.db.ExecContext(ctx, query, args...)
		if err == nil || !isBusyError(err) {
			return result, err
		}
		if i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // 100ms, 200ms, 400ms
			slog.Debug("session write hit SQLITE_BUSY, retrying",
				"attempt", i+1,
				"delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return result, err
}
