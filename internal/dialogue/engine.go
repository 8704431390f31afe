// Package dialogue drives one conversational turn of the onboarding
// interview: extraction, answer merge, step transition, persistence and,
// at the terminal step, the handoff to provisioning.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agencykit/onboard/internal/domain"
	"github.com/agencykit/onboard/internal/extract"
	"github.com/agencykit/onboard/internal/store"
)

// historyLimit bounds how much transcript is sent to the extractor. Enough
// for reference resolution ("same as before") without unbounded prompts.
const historyLimit = 20

// Finalizer runs the provisioning pipeline for a completed session and
// returns the client-facing reply segments.
type Finalizer interface {
	Finalize(ctx context.Context, sess *domain.Session) (*domain.ProvisioningResult, []string, error)
}

// TurnResult is the outcome of one processed inbound message.
type TurnResult struct {
	Session *domain.Session
	// Replies holds one or more reply segments for the messaging
	// transport, in send order.
	Replies []string
}

// Engine orchestrates conversational turns.
type Engine struct {
	repo            store.Repository
	gateway         extract.Gateway
	table           *domain.StepTable
	finalizer       Finalizer
	locks           *subjectLocks
	extractTimeout  time.Duration
	defaultLanguage string
	logger          *slog.Logger
}

// Config holds engine construction parameters.
type Config struct {
	Repo            store.Repository
	Gateway         extract.Gateway
	Table           *domain.StepTable
	Finalizer       Finalizer
	ExtractTimeout  time.Duration
	DefaultLanguage string
	Logger          *slog.Logger
}

// NewEngine creates a dialogue engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Repo == nil || cfg.Gateway == nil || cfg.Finalizer == nil {
		return nil, errors.New("dialogue engine: repo, gateway and finalizer are required")
	}
	if cfg.Table == nil {
		cfg.Table = domain.OnboardingSteps()
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = 45 * time.Second
	}
	if !KnownLanguage(cfg.DefaultLanguage) {
		cfg.DefaultLanguage = DefaultLanguage
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Engine{
		repo:            cfg.Repo,
		gateway:         cfg.Gateway,
		table:           cfg.Table,
		finalizer:       cfg.Finalizer,
		locks:           newSubjectLocks(),
		extractTimeout:  cfg.ExtractTimeout,
		defaultLanguage: cfg.DefaultLanguage,
		logger:          cfg.Logger,
	}, nil
}

// HandleMessage processes one inbound message for a subject. Turns for the
// same subject key are serialized; turns for different subjects run
// concurrently.
func (e *Engine) HandleMessage(ctx context.Context, subjectKey string, channel domain.Channel, language, text string) (*TurnResult, error) {
	release := e.locks.Lock(subjectKey)
	defer release()

	sess, err := e.repo.GetActiveSession(ctx, subjectKey)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		if !KnownLanguage(language) {
			language = e.defaultLanguage
		}
		sess, err = e.repo.CreateSession(ctx, subjectKey, channel, language, e.table.First())
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		e.logger.Info("session created",
			"session_id", sess.ID,
			"subject_key", subjectKey,
			"channel", channel,
			"language", sess.Language)
	}

	return e.runTurn(ctx, sess, text)
}

// runTurn executes the turn algorithm against a loaded session.
func (e *Engine) runTurn(ctx context.Context, sess *domain.Session, text string) (*TurnResult, error) {
	pack := PackFor(sess.Language)
	prompt := buildSystemPrompt(e.table, sess)

	callCtx, cancel := context.WithTimeout(ctx, e.extractTimeout)
	raw, err := e.gateway.Extract(callCtx, prompt, sess.RecentHistory(historyLimit), text)
	cancel()
	if err != nil {
		// Transport failures and timeouts degrade to the clarification
		// path. The turn mutates nothing; the user can simply retry.
		e.logger.Warn("extraction call failed",
			"session_id", sess.ID,
			"step", sess.CurrentStep,
			"error", err)
		return &TurnResult{Session: sess, Replies: []string{pack.Clarification}}, nil
	}

	ext, err := extract.Parse(raw)
	if err != nil {
		// The only locally recoverable engine failure: unusable model
		// output. No session mutation, ask the user to repeat.
		e.logger.Warn("extraction output unparseable",
			"session_id", sess.ID,
			"step", sess.CurrentStep,
			"error", err)
		return &TurnResult{Session: sess, Replies: []string{pack.Clarification}}, nil
	}

	// The extractor is only trusted for keys the step table defines;
	// anything else the model invented must not reach the session record.
	for key := range ext.Extracted {
		if !e.table.Contains(key) {
			e.logger.Warn("dropping unknown slot key",
				"session_id", sess.ID,
				"key", key)
			delete(ext.Extracted, key)
		}
	}

	sess.RecordMessage("user", text)
	merged := sess.MergeAnswers(ext.Extracted)

	next := e.table.NextStep(sess.CurrentStep, ext.NextStep)
	e.logger.Info("turn processed",
		"session_id", sess.ID,
		"step", sess.CurrentStep,
		"next_step", next,
		"slots_merged", merged)

	if next == domain.StepComplete {
		return e.finalize(ctx, sess)
	}

	sess.CurrentStep = next
	reply := ext.Message
	if reply == "" {
		reply = pack.Continuation
	}
	sess.RecordMessage("assistant", reply)

	if err := e.repo.UpdateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return &TurnResult{Session: sess, Replies: []string{reply}}, nil
}

// finalize flips the session to completed, runs the provisioning pipeline
// exactly once, and returns its client-facing reply segments. The one-way
// in_progress to completed transition under the subject lock is the guard
// against a second invocation.
func (e *Engine) finalize(ctx context.Context, sess *domain.Session) (*TurnResult, error) {
	sess.Complete()
	if err := e.repo.UpdateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist completed session: %w", err)
	}

	result, replies, err := e.finalizer.Finalize(ctx, sess)
	if err != nil {
		// The orchestrator captures step failures itself; an error here
		// means the pipeline could not run at all.
		return nil, fmt.Errorf("provisioning pipeline: %w", err)
	}

	for _, reply := range replies {
		sess.RecordMessage("assistant", reply)
	}
	if err := e.repo.UpdateSession(ctx, sess); err != nil {
		e.logger.Warn("failed to persist final transcript",
			"session_id", sess.ID,
			"error", err)
	}
	if err := e.repo.AttachProvisioning(ctx, sess.ID, result); err != nil {
		e.logger.Warn("failed to attach provisioning references",
			"session_id", sess.ID,
			"error", err)
	}

	sess.ClientID = result.ClientID
	sess.FolderURL = result.FolderURL
	sess.InviteURL = result.InviteURL
	return &TurnResult{Session: sess, Replies: replies}, nil
}
