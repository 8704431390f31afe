package domain

import (
	"testing"
	"time"
)

func TestMergeAnswersIsIdempotentAndMonotonic(t *testing.T) {
	t.Parallel()

	s := &Session{}

	if changed := s.MergeAnswers(map[string]string{"name": " John "}); changed != 1 {
		t.Fatalf("expected 1 changed slot, got %d", changed)
	}
	if s.Answers["name"] != "John" {
		t.Fatalf("expected trimmed value, got %q", s.Answers["name"])
	}

	// Same extraction again is a no-op.
	if changed := s.MergeAnswers(map[string]string{"name": "John"}); changed != 0 {
		t.Fatalf("expected idempotent merge, got %d changes", changed)
	}

	// Empty and whitespace-only values are dropped, keys never removed.
	s.MergeAnswers(map[string]string{"name": "", "budget": "   "})
	if s.Answers["name"] != "John" {
		t.Fatal("empty extraction must not clear an existing answer")
	}
	if _, ok := s.Answers["budget"]; ok {
		t.Fatal("whitespace-only value must be dropped")
	}

	// A new non-empty value overwrites.
	s.MergeAnswers(map[string]string{"name": "Jane"})
	if s.Answers["name"] != "Jane" {
		t.Fatalf("expected overwrite, got %q", s.Answers["name"])
	}
}

func TestCompleteIsMonotonic(t *testing.T) {
	t.Parallel()

	s := &Session{Status: StatusInProgress, CurrentStep: "notes"}
	s.Complete()
	if s.Status != StatusCompleted || s.CurrentStep != StepComplete {
		t.Fatalf("unexpected state after Complete: %s %s", s.Status, s.CurrentStep)
	}
	s.Complete()
	if s.Status != StatusCompleted {
		t.Fatal("completed status must never regress")
	}
}

func TestAnswerOr(t *testing.T) {
	t.Parallel()

	s := &Session{Answers: map[string]string{
		"name":   "Acme",
		"budget": SkippedValue,
	}}
	if got := s.AnswerOr("name", "N/A"); got != "Acme" {
		t.Errorf("expected Acme, got %q", got)
	}
	if got := s.AnswerOr("budget", "N/A"); got != "N/A" {
		t.Errorf("skipped slot should fall back, got %q", got)
	}
	if got := s.AnswerOr("missing", "N/A"); got != "N/A" {
		t.Errorf("missing slot should fall back, got %q", got)
	}
}

func TestIdleSince(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := &Session{Status: StatusInProgress, UpdatedAt: now.Add(-2 * time.Hour)}
	if !s.IdleSince(now, time.Hour) {
		t.Fatal("expected session to be idle")
	}
	s.Status = StatusCompleted
	if s.IdleSince(now, time.Hour) {
		t.Fatal("completed sessions are never idle")
	}
}
