package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agencykit/onboard/internal/provision"
)

func TestFileSinkWritesNDJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audit", "onboarding.ndjson")
	sink, err := NewFileSink(Config{
		Enabled:   true,
		Path:      path,
		QueueSize: 16,
	}, slog.Default())
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	defer func() { _ = sink.Close() }()

	rec := provision.AuditRecord{
		Action:     "client_onboarded",
		SessionID:  "sess-1",
		SubjectKey: "+1555000",
		Answers:    map[string]string{"business_name": "Acme"},
		Steps:      []string{"client record"},
		Errors:     []provision.AuditError{{Label: "access invite", Message: "timeout"}},
		Result:     "partial",
	}
	if err := sink.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	line := waitForAuditLine(t, path)
	var got envelope
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("failed to unmarshal audit line: %v", err)
	}
	if got.SessionID != "sess-1" || got.Result != "partial" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
	if len(got.Errors) != 1 || got.Errors[0].Label != "access invite" {
		t.Fatalf("errors not preserved: %+v", got.Errors)
	}
}

func TestFileSinkDisabledReturnsNil(t *testing.T) {
	t.Parallel()

	sink, err := NewFileSink(Config{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	if sink != nil {
		t.Fatal("expected nil sink when disabled")
	}
}

func TestFileSinkCloseDrainsQueue(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "onboarding.ndjson")
	sink, err := NewFileSink(Config{Enabled: true, Path: path, QueueSize: 16}, slog.Default())
	if err != nil {
		t.Fatalf("NewFileSink failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		_ = sink.Record(context.Background(), provision.AuditRecord{SessionID: "sess-drain"})
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read audit file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 records after drain, got %d", len(lines))
	}
}

func waitForAuditLine(t *testing.T, path string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) > 0 {
				return lines[len(lines)-1]
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for audit file %s", path)
	return ""
}
