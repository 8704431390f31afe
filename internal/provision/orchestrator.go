package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agencykit/onboard/internal/domain"
)

// Step labels, in registry order. The ledger invariant is that every run
// produces exactly one outcome per label.
const (
	labelClientRecord = "client record"
	labelFolders      = "storage folders"
	labelIntakeDoc    = "intake document"
	labelProfileSheet = "profile sheet"
	labelConvLog      = "conversation log"
	labelInvite       = "access invite"
)

var stepLabels = []string{
	labelClientRecord,
	labelFolders,
	labelIntakeDoc,
	labelProfileSheet,
	labelConvLog,
	labelInvite,
}

// subFolderNames is the folder tree provisioned for every client. Uploads
// is made link-shareable so the client can drop materials in.
var subFolderNames = []string{"Uploads", "Documents", "Reports"}

const uploadsShareRole = "writer"

// defaultStepTimeout bounds each step when no timeout is configured. A
// hung upstream call becomes a ledger error instead of blocking the
// terminal turn.
const defaultStepTimeout = 30 * time.Second

// Orchestrator runs the provisioning pipeline for completed sessions. It
// is best-effort: any individual step may fail without aborting the rest,
// and the result ledger records exactly what happened.
type Orchestrator struct {
	directory   ClientDirectory
	folders     FolderService
	documents   DocumentService
	records     RecordService
	invites     InviteService
	audit       AuditSink
	stepTimeout time.Duration
	logger      *slog.Logger
}

// Collaborators bundles the external services the pipeline drives.
type Collaborators struct {
	Directory ClientDirectory
	Folders   FolderService
	Documents DocumentService
	Records   RecordService
	Invites   InviteService
	Audit     AuditSink
}

// NewOrchestrator creates a provisioning orchestrator. Every step call
// runs under stepTimeout; zero selects the default bound.
func NewOrchestrator(c Collaborators, stepTimeout time.Duration, logger *slog.Logger) (*Orchestrator, error) {
	if c.Directory == nil || c.Folders == nil || c.Documents == nil || c.Records == nil || c.Invites == nil {
		return nil, errors.New("provision: all collaborator services are required")
	}
	if stepTimeout <= 0 {
		stepTimeout = defaultStepTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		directory:   c.Directory,
		folders:     c.Folders,
		documents:   c.Documents,
		records:     c.Records,
		invites:     c.Invites,
		audit:       c.Audit,
		stepTimeout: stepTimeout,
		logger:      logger,
	}, nil
}

// outcome is the result of one attempted step.
type outcome struct {
	attempted bool
	err       error
}

// Finalize provisions all external resources for a completed session and
// returns the result ledger plus the client-facing reply segments. It is
// invoked exactly once per session, guarded by the one-way session status
// transition in the dialogue engine.
func (o *Orchestrator) Finalize(ctx context.Context, sess *domain.Session) (*domain.ProvisioningResult, []string, error) {
	if sess.Status != domain.StatusCompleted {
		return nil, nil, fmt.Errorf("session %s is not completed", sess.ID)
	}

	result := &domain.ProvisioningResult{}
	outcomes := make([]outcome, len(stepLabels))
	fail := func(i int, err error) {
		outcomes[i] = outcome{attempted: true, err: err}
	}
	ok := func(i int) {
		outcomes[i] = outcome{attempted: true}
	}

	businessName := sess.AnswerOr("business_name", sess.SubjectKey)

	// The invite depends on nothing the folder/document chain produces,
	// so it runs concurrently; its failure is still captured on its own
	// ledger slot.
	var g errgroup.Group

	g.Go(func() error {
		// 1. Client record.
		stepCtx, cancel := context.WithTimeout(ctx, o.stepTimeout)
		clientID, err := o.directory.CreateClient(stepCtx, ClientProfile{
			ContactName:  sess.AnswerOr("name", ""),
			BusinessName: businessName,
			SubjectKey:   sess.SubjectKey,
			Channel:      string(sess.Channel),
			Language:     sess.Language,
			Answers:      sess.Answers,
		})
		cancel()
		if err != nil {
			fail(0, fmt.Errorf("create client record: %w", err))
		} else {
			result.ClientID = clientID
			ok(0)
		}

		// 2. Folder tree, with a link-shareable uploads folder. One
		// bound covers both calls.
		stepCtx, cancel = context.WithTimeout(ctx, o.stepTimeout)
		tree, err := o.folders.CreateTree(stepCtx, businessName, subFolderNames)
		switch {
		case err != nil:
			fail(1, fmt.Errorf("create folder tree: %w", err))
		default:
			uploadsID, has := tree.SubFolders["Uploads"]
			if !has {
				fail(1, errors.New("folder tree created without uploads folder"))
				break
			}
			shared, shareErr := o.folders.ShareLink(stepCtx, uploadsID, uploadsShareRole)
			if shareErr != nil || !shared {
				if shareErr == nil {
					shareErr = errors.New("sharing was rejected")
				}
				fail(1, fmt.Errorf("share uploads folder: %w", shareErr))
				break
			}
			result.FolderURL = tree.RootURL
			ok(1)
		}
		cancel()

		// Documents land in the Documents sub-folder when the tree
		// exists, otherwise in the service's default parent: a failed
		// folder step degrades the later steps, it does not skip them.
		parentID := ""
		if tree != nil {
			parentID = tree.SubFolders["Documents"]
		}

		// 3. Intake document.
		stepCtx, cancel = context.WithTimeout(ctx, o.stepTimeout)
		if _, err := o.documents.CreateDocument(stepCtx,
			fmt.Sprintf("Intake - %s", businessName),
			renderIntakeDocument(sess), parentID); err != nil {
			fail(2, fmt.Errorf("create intake document: %w", err))
		} else {
			ok(2)
		}
		cancel()

		// 4. Profile sheet.
		stepCtx, cancel = context.WithTimeout(ctx, o.stepTimeout)
		if _, err := o.records.CreateRecord(stepCtx,
			fmt.Sprintf("Profile - %s", businessName),
			renderProfileRows(sess), parentID); err != nil {
			fail(3, fmt.Errorf("create profile sheet: %w", err))
		} else {
			ok(3)
		}
		cancel()

		// 5. Conversation log seeded with the onboarding transcript.
		stepCtx, cancel = context.WithTimeout(ctx, o.stepTimeout)
		if _, err := o.documents.CreateDocument(stepCtx,
			fmt.Sprintf("Conversation log - %s", businessName),
			renderTranscript(sess), parentID); err != nil {
			fail(4, fmt.Errorf("create conversation log: %w", err))
		} else {
			ok(4)
		}
		cancel()
		return nil
	})

	g.Go(func() error {
		// 6. Access-grant invitation scoped to the reported channels.
		stepCtx, cancel := context.WithTimeout(ctx, o.stepTimeout)
		defer cancel()
		platforms := derivePlatforms(sess.Answers["channels_have"], sess.Answers["channels_need"])
		invite, err := o.invites.CreateInvite(stepCtx, businessName, sess.SubjectKey, platforms,
			fmt.Sprintf("Access grant for onboarding of %s", businessName))
		if err != nil {
			fail(5, fmt.Errorf("create access invite: %w", err))
		} else {
			result.InviteURL = invite.URL
			ok(5)
		}
		return nil
	})

	// The branches never return errors; failures live in the outcomes.
	_ = g.Wait()

	for i := range outcomes {
		oc := outcomes[i]
		if !oc.attempted {
			// Should be unreachable; keep the ledger invariant anyway.
			oc.err = errors.New("step was not attempted")
		}
		if oc.err != nil {
			result.Errors = append(result.Errors, domain.StepError{
				Label:   stepLabels[i],
				Message: oc.err.Error(),
			})
		} else {
			result.Steps = append(result.Steps, stepLabels[i])
		}
	}

	o.emitAudit(ctx, sess, result)
	o.logger.Info("provisioning finished",
		"session_id", sess.ID,
		"result", result.Outcome(),
		"completed", len(result.Steps),
		"failed", len(result.Errors))
	o.logger.Info(renderOperatorDigest(sess, result))

	text := completionTextFor(sess.Language)
	replies := []string{text.Interim, clientMessage(sess, result)}
	return result, replies, nil
}

func (o *Orchestrator) emitAudit(ctx context.Context, sess *domain.Session, result *domain.ProvisioningResult) {
	if o.audit == nil {
		return
	}
	rec := AuditRecord{
		Action:     "client_onboarded",
		SessionID:  sess.ID,
		SubjectKey: sess.SubjectKey,
		Answers:    sess.Answers,
		Steps:      result.Steps,
		Result:     result.Outcome(),
	}
	for _, e := range result.Errors {
		rec.Errors = append(rec.Errors, AuditError{Label: e.Label, Message: e.Message})
	}
	if err := o.audit.Record(ctx, rec); err != nil {
		o.logger.Warn("failed to write audit record",
			"session_id", sess.ID,
			"error", err)
	}
}
