// Package api provides HTTP handlers for the onboarding API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agencykit/onboard/internal/dialogue"
	"github.com/agencykit/onboard/internal/domain"
	"github.com/agencykit/onboard/internal/identity"
	"github.com/agencykit/onboard/internal/store"
)

// maxBodyBytes caps inbound webhook payloads.
const maxBodyBytes = 64 * 1024

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Handler serves the onboarding webhook and operator endpoints.
type Handler struct {
	engine      *dialogue.Engine
	repo        store.Repository
	rateLimiter *RateLimiter
	logger      *slog.Logger
}

// NewHandler creates the onboarding API handler.
func NewHandler(engine *dialogue.Engine, repo store.Repository, rl *RateLimiter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:      engine,
		repo:        repo,
		rateLimiter: rl,
		logger:      logger,
	}
}

// MessageRequest is the inbound webhook payload, one per user message.
type MessageRequest struct {
	SubjectKey string `json:"subject_key"`
	Channel    string `json:"channel"`
	Language   string `json:"language,omitempty"`
	Text       string `json:"text"`
}

// MessageResponse carries the reply segments back to the messaging
// transport.
type MessageResponse struct {
	SessionID string   `json:"session_id"`
	Status    string   `json:"status"`
	Replies   []string `json:"replies"`
}

// HandleMessage handles POST /api/onboarding/message.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subjectKey, err := identity.NormalizeSubjectKey(req.SubjectKey)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid subject_key")
		return
	}
	channel := domain.Channel(req.Channel)
	if !domain.ValidChannel(channel) {
		Error(w, http.StatusBadRequest, "unknown channel")
		return
	}
	if req.Text == "" {
		Error(w, http.StatusBadRequest, "text is required")
		return
	}

	if h.rateLimiter != nil && !h.rateLimiter.Allow(subjectKey) {
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	result, err := h.engine.HandleMessage(r.Context(), subjectKey, channel, req.Language, req.Text)
	if err != nil {
		h.logger.Error("message handling failed",
			"subject_key", subjectKey,
			"error", err)
		Error(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	JSON(w, http.StatusOK, MessageResponse{
		SessionID: result.Session.ID,
		Status:    string(result.Session.Status),
		Replies:   result.Replies,
	})
}

// SessionView is the operator-facing projection of a session.
type SessionView struct {
	ID          string            `json:"id"`
	SubjectKey  string            `json:"subject_key"`
	Channel     string            `json:"channel"`
	Language    string            `json:"language"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	Answers     map[string]string `json:"answers"`
	ClientID    string            `json:"client_id,omitempty"`
	FolderURL   string            `json:"folder_url,omitempty"`
	InviteURL   string            `json:"invite_url,omitempty"`
	NeedsReview bool              `json:"needs_review"`
	Messages    int               `json:"messages"`
	CreatedAt   string            `json:"created_at"`
	UpdatedAt   string            `json:"updated_at"`
}

// HandleGetSession handles GET /api/onboarding/session/{subjectKey}. It
// returns the subject's active session, falling back to the most recent
// completed one.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	subjectKey, err := identity.NormalizeSubjectKey(chi.URLParam(r, "subjectKey"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid subject_key")
		return
	}

	sess, err := h.repo.GetActiveSession(r.Context(), subjectKey)
	if err != nil {
		h.logger.Error("session lookup failed", "subject_key", subjectKey, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if sess == nil {
		sess, err = h.repo.GetLatestSession(r.Context(), subjectKey)
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "no session for subject")
			return
		}
		if err != nil {
			h.logger.Error("session lookup failed", "subject_key", subjectKey, "error", err)
			Error(w, http.StatusInternalServerError, "failed to load session")
			return
		}
	}

	JSON(w, http.StatusOK, sessionView(sess))
}

// HandleGetSessionByID handles GET /api/onboarding/sessions/{sessionID},
// resolving the id returned by the webhook response.
func (h *Handler) HandleGetSessionByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if id == "" {
		Error(w, http.StatusBadRequest, "session id is required")
		return
	}

	sess, err := h.repo.GetSession(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "no such session")
		return
	}
	if err != nil {
		h.logger.Error("session lookup failed", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	JSON(w, http.StatusOK, sessionView(sess))
}

func sessionView(sess *domain.Session) SessionView {
	return SessionView{
		ID:          sess.ID,
		SubjectKey:  sess.SubjectKey,
		Channel:     string(sess.Channel),
		Language:    sess.Language,
		CurrentStep: sess.CurrentStep,
		Status:      string(sess.Status),
		Answers:     sess.Answers,
		ClientID:    sess.ClientID,
		FolderURL:   sess.FolderURL,
		InviteURL:   sess.InviteURL,
		NeedsReview: sess.NeedsReview,
		Messages:    len(sess.History),
		CreatedAt:   sess.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   sess.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// RegisterRoutes registers the onboarding routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/onboarding/message", h.HandleMessage)
	r.Get("/api/onboarding/session/{subjectKey}", h.HandleGetSession)
	r.Get("/api/onboarding/sessions/{sessionID}", h.HandleGetSessionByID)
}
