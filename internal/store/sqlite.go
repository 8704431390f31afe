package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/agencykit/onboard/internal/domain"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	sessionMu sync.Mutex // serializes session writes to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		subject_key TEXT NOT NULL,
		channel TEXT NOT NULL,
		language TEXT NOT NULL,
		current_step TEXT NOT NULL,
		answers_json TEXT NOT NULL,
		history_json TEXT NOT NULL,
		status TEXT NOT NULL,
		client_id TEXT,
		folder_url TEXT,
		invite_url TEXT,
		needs_review INTEGER DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_active
		ON sessions(subject_key) WHERE status = 'in_progress';
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const sessionColumns = `id, subject_key, channel, language, current_step,
       answers_json, history_json, status, client_id, folder_url, invite_url,
       needs_review, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (*domain.Session, error) {
	var sess domain.Session
	var answersJSON, historyJSON string
	var clientID, folderURL, inviteURL sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&sess.ID, &sess.SubjectKey, &sess.Channel, &sess.Language,
		&sess.CurrentStep, &answersJSON, &historyJSON, &sess.Status,
		&clientID, &folderURL, &inviteURL, &sess.NeedsReview,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(answersJSON), &sess.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &sess.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	sess.ClientID = clientID.String
	sess.FolderURL = folderURL.String
	sess.InviteURL = inviteURL.String
	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.UpdatedAt = time.Unix(updatedAt, 0)
	return &sess, nil
}

// GetActiveSession retrieves the in-progress session for a subject key.
func (s *SQLiteStore) GetActiveSession(ctx context.Context, subjectKey string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE subject_key = ? AND status = ?`

	row := s.db.QueryRowContext(ctx, query, subjectKey, domain.StatusInProgress)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan active session: %w", err)
	}
	return sess, nil
}

// CreateSession creates a new in-progress session, or returns the existing
// active one. The partial unique index on (subject_key, in_progress) makes
// the race between two first messages safe: the loser of the insert falls
// back to reading the winner's row.
func (s *SQLiteStore) CreateSession(ctx context.Context, subjectKey string, channel domain.Channel, language, firstStep string) (*domain.Session, error) {
	if existing, err := s.GetActiveSession(ctx, subjectKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	now := time.Now()
	sess := &domain.Session{
		ID:          uuid.NewString(),
		SubjectKey:  subjectKey,
		Channel:     channel,
		Language:    language,
		CurrentStep: firstStep,
		Answers:     map[string]string{},
		Status:      domain.StatusInProgress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `
	INSERT INTO sessions (id, subject_key, channel, language, current_step,
		answers_json, history_json, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	s.sessionMu.Lock()
	_, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.SubjectKey, sess.Channel, sess.Language,
		sess.CurrentStep, "{}", "[]", sess.Status,
		sess.CreatedAt.Unix(), sess.UpdatedAt.Unix(),
	)
	s.sessionMu.Unlock()
	if err != nil {
		// Unique-index violation: another turn created the session first.
		if existing, getErr := s.GetActiveSession(ctx, subjectKey); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// GetSession retrieves a session by id.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return sess, nil
}

// GetLatestSession retrieves the subject's most recently updated session
// regardless of status.
func (s *SQLiteStore) GetLatestSession(ctx context.Context, subjectKey string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE subject_key = ?
		ORDER BY updated_at DESC, created_at DESC
		LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, subjectKey)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan latest session: %w", err)
	}
	return sess, nil
}

// UpdateSession persists the session's dialogue state. Status never
// regresses: a completed row keeps its status regardless of the patch.
func (s *SQLiteStore) UpdateSession(ctx context.Context, session *domain.Session) error {
	answersJSON, err := json.Marshal(session.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	historyJSON, err := json.Marshal(session.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	query := `
	UPDATE sessions SET
		current_step = ?,
		answers_json = ?,
		history_json = ?,
		status = CASE WHEN status = 'completed' THEN status ELSE ? END,
		language = ?,
		updated_at = ?
	WHERE id = ?`

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	result, err := s.execWithBusyRetry(ctx, query,
		session.CurrentStep, string(answersJSON), string(historyJSON),
		session.Status, session.Language, time.Now().Unix(), session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateSession affected 0 rows", "session_id", session.ID)
		return ErrNotFound
	}
	return nil
}

// AttachProvisioning records provisioning back-references on a session.
func (s *SQLiteStore) AttachProvisioning(ctx context.Context, id string, result *domain.ProvisioningResult) error {
	query := `
	UPDATE sessions SET
		client_id = COALESCE(NULLIF(?, ''), client_id),
		folder_url = COALESCE(NULLIF(?, ''), folder_url),
		invite_url = COALESCE(NULLIF(?, ''), invite_url),
		updated_at = ?
	WHERE id = ?`

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	res, err := s.execWithBusyRetry(ctx, query,
		result.ClientID, result.FolderURL, result.InviteURL,
		time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("attach provisioning: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("AttachProvisioning affected 0 rows", "session_id", id)
		return ErrNotFound
	}
	return nil
}

// GetStaleSessions retrieves in-progress sessions untouched for longer than ttl.
func (s *SQLiteStore) GetStaleSessions(ctx context.Context, ttl time.Duration) ([]*domain.Session, error) {
	threshold := time.Now().Add(-ttl).Unix()
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE status = ? AND needs_review = 0 AND updated_at < ?`

	rows, err := s.db.QueryContext(ctx, query, domain.StatusInProgress, threshold)
	if err != nil {
		return nil, fmt.Errorf("query stale sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close stale sessions rows", "error", closeErr)
		}
	}()

	var sessions []*domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stale session row: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale sessions: %w", err)
	}
	return sessions, nil
}

// MarkNeedsReview flags a session for operator attention.
func (s *SQLiteStore) MarkNeedsReview(ctx context.Context, id string) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	query := `UPDATE sessions SET needs_review = 1, updated_at = ? WHERE id = ?`
	if _, err := s.execWithBusyRetry(ctx, query, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("mark needs review: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
