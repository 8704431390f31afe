// Package domain contains core domain types for the onboarding service.
package domain

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an onboarding session.
type Status string

const (
	// StatusInProgress marks a session whose dialogue is still collecting answers.
	StatusInProgress Status = "in_progress"
	// StatusCompleted marks a session whose dialogue finished and whose
	// provisioning pipeline has run. The transition is one-way.
	StatusCompleted Status = "completed"
)

// Channel identifies the delivery channel a session was opened on.
// It affects reply formatting only, never dialogue logic.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTelegram Channel = "telegram"
	ChannelWeb      Channel = "web"
)

// ValidChannel reports whether c is a known delivery channel.
func ValidChannel(c Channel) bool {
	switch c {
	case ChannelWhatsApp, ChannelTelegram, ChannelWeb:
		return true
	}
	return false
}

// SkippedValue is the sentinel answer recorded when the user declines a slot.
// It counts as answered so the dialogue cannot deadlock on a refusal.
const SkippedValue = "skipped"

// Message is one entry of the per-session conversation transcript.
type Message struct {
	Role   string    `json:"role"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Session is the durable record of one client onboarding conversation.
// At most one session per subject key may be in progress at a time.
type Session struct {
	ID          string
	SubjectKey  string
	Channel     Channel
	Language    string
	CurrentStep string
	Answers     map[string]string
	Status      Status
	History     []Message

	// Back-references attached by the provisioning pipeline.
	ClientID  string
	FolderURL string
	InviteURL string

	NeedsReview bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MergeAnswers folds extracted slot values into the session's answers.
// Values are trimmed; empty values are dropped; non-empty values overwrite.
// Keys are never removed, so the answer set only ever grows. The merge is
// idempotent: applying the same extraction twice changes nothing the second
// time. Returns the number of slots that actually changed.
func (s *Session) MergeAnswers(extracted map[string]string) int {
	if s.Answers == nil {
		s.Answers = make(map[string]string)
	}
	changed := 0
	for key, value := range extracted {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if s.Answers[key] != value {
			s.Answers[key] = value
			changed++
		}
	}
	return changed
}

// Answered reports whether the slot has a usable answer. The skipped
// sentinel counts as answered.
func (s *Session) Answered(key string) bool {
	v, ok := s.Answers[key]
	return ok && strings.TrimSpace(v) != ""
}

// AnswerOr returns the slot value, or fallback when the slot is unanswered
// or was skipped by the user.
func (s *Session) AnswerOr(key, fallback string) string {
	v := strings.TrimSpace(s.Answers[key])
	if v == "" || v == SkippedValue {
		return fallback
	}
	return v
}

// RecordMessage appends one transcript entry.
func (s *Session) RecordMessage(role, text string) {
	s.History = append(s.History, Message{
		Role:   role,
		Text:   text,
		SentAt: time.Now().UTC(),
	})
}

// RecentHistory returns the last n transcript entries.
func (s *Session) RecentHistory(n int) []Message {
	if n >= len(s.History) {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// Complete flips the session to completed. The transition never regresses:
// completing an already completed session is a no-op.
func (s *Session) Complete() {
	s.Status = StatusCompleted
	s.CurrentStep = StepComplete
}

// IdleSince reports whether an in-progress session has seen no update for
// longer than d.
func (s *Session) IdleSince(now time.Time, d time.Duration) bool {
	return s.Status == StatusInProgress && now.Sub(s.UpdatedAt) > d
}
