// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/agencykit/onboard/internal/domain"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Repository defines the interface for persisting onboarding sessions.
type Repository interface {
	// GetActiveSession retrieves the in-progress session for a subject key.
	// Returns (nil, nil) when the subject has no active session.
	GetActiveSession(ctx context.Context, subjectKey string) (*domain.Session, error)

	// CreateSession creates a new in-progress session for a subject key,
	// positioned at firstStep. If an active session already exists for
	// the subject the call is a no-op that returns the existing session.
	CreateSession(ctx context.Context, subjectKey string, channel domain.Channel, language, firstStep string) (*domain.Session, error)

	// GetSession retrieves a session by id. Returns ErrNotFound when absent.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// GetLatestSession retrieves the most recently updated session for a
	// subject key regardless of status. Returns ErrNotFound when the
	// subject has no sessions at all.
	GetLatestSession(ctx context.Context, subjectKey string) (*domain.Session, error)

	// UpdateSession persists the session's dialogue state (answers, step,
	// status, history). The write is atomic per session id.
	UpdateSession(ctx context.Context, session *domain.Session) error

	// AttachProvisioning records provisioning back-references on a
	// completed session.
	AttachProvisioning(ctx context.Context, id string, result *domain.ProvisioningResult) error

	// GetStaleSessions retrieves in-progress sessions untouched for longer
	// than ttl that are not yet flagged for review.
	GetStaleSessions(ctx context.Context, ttl time.Duration) ([]*domain.Session, error)

	// MarkNeedsReview flags a stale session for operator attention.
	MarkNeedsReview(ctx context.Context, id string) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
