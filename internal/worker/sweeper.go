// Package worker runs background maintenance for onboarding sessions.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/agencykit/onboard/internal/store"
)

const sweepInterval = 5 * time.Minute

// StaleCallback is called for every session the sweeper flags.
type StaleCallback func(subjectKey string)

// StartStaleSweeper runs a background goroutine that periodically flags
// in-progress sessions idle beyond the ttl for operator review. Flagged
// sessions stay open; the next inbound message resumes them where they
// left off.
func StartStaleSweeper(ctx context.Context, repo store.Repository, ttl time.Duration, onStale StaleCallback) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("stale sweeper started", "interval", sweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepStaleSessions(ctx, repo, ttl, onStale)
			case <-ctx.Done():
				slog.Info("stale sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepStaleSessions(ctx context.Context, repo store.Repository, ttl time.Duration, onStale StaleCallback) {
	stale, err := repo.GetStaleSessions(ctx, ttl)
	if err != nil {
		slog.Error("stale sweeper failed to list sessions", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	slog.Info("stale sweeper found idle sessions", "count", len(stale))

	for _, sess := range stale {
		if err := repo.MarkNeedsReview(ctx, sess.ID); err != nil {
			slog.Warn("stale sweeper failed to flag session",
				"error", err,
				"session_id", sess.ID,
				"subject_key", sess.SubjectKey)
			continue
		}
		slog.Info("session flagged for review",
			"session_id", sess.ID,
			"subject_key", sess.SubjectKey,
			"current_step", sess.CurrentStep,
			"idle", time.Since(sess.UpdatedAt).Round(time.Second))
		if onStale != nil {
			onStale(sess.SubjectKey)
		}
	}
}
