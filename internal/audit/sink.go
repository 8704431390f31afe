// Package audit persists one NDJSON record per finalized onboarding,
// written asynchronously so provisioning never blocks on disk.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agencykit/onboard/internal/provision"
)

// Config controls NDJSON audit logging.
type Config struct {
	Enabled   bool
	Path      string
	QueueSize int
}

type envelope struct {
	Timestamp time.Time `json:"ts"`
	provision.AuditRecord
}

// FileSink appends audit records to an NDJSON file through a bounded
// queue. A full queue drops the record with a warning rather than
// blocking the caller.
type FileSink struct {
	queue  chan envelope
	done   chan struct{}
	closed sync.Once
	wg     sync.WaitGroup
	logger *slog.Logger
}

var _ provision.AuditSink = (*FileSink)(nil)

// NewFileSink opens the audit file and starts the writer goroutine.
// Returns nil when auditing is disabled; callers treat a nil sink as
// no-op.
func NewFileSink(cfg Config, logger *slog.Logger) (*FileSink, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("audit: create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit: open log file: %w", err)
	}

	s := &FileSink{
		queue:  make(chan envelope, cfg.QueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	s.wg.Add(1)
	go s.writeLoop(f)
	return s, nil
}

// Record enqueues an audit record. It never blocks: when the queue is
// full the record is dropped and a warning logged.
func (s *FileSink) Record(_ context.Context, rec provision.AuditRecord) error {
	env := envelope{Timestamp: time.Now().UTC(), AuditRecord: rec}
	select {
	case s.queue <- env:
		return nil
	case <-s.done:
		return fmt.Errorf("audit: sink is closed")
	default:
		s.logger.Warn("audit queue full, dropping record",
			"session_id", rec.SessionID,
			"action", rec.Action)
		return fmt.Errorf("audit: queue full")
	}
}

// Close drains the queue and closes the file.
func (s *FileSink) Close() error {
	s.closed.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return nil
}

func (s *FileSink) writeLoop(f *os.File) {
	defer s.wg.Done()
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	for {
		select {
		case env := <-s.queue:
			if err := enc.Encode(env); err != nil {
				s.logger.Warn("failed to write audit record",
					"session_id", env.SessionID,
					"error", err)
			}
		case <-s.done:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case env := <-s.queue:
					if err := enc.Encode(env); err != nil {
						s.logger.Warn("failed to write audit record",
							"session_id", env.SessionID,
							"error", err)
					}
				default:
					return
				}
			}
		}
	}
}
