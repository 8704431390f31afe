// Package provision turns a completed onboarding session into durable
// external resources, tolerating partial failure and keeping an accurate
// ledger of what was and was not created.
package provision

import "context"

// Resource is a created external artifact.
type Resource struct {
	ID  string
	URL string
}

// FolderTree is the result of provisioning a client's folder structure.
type FolderTree struct {
	RootID     string
	RootURL    string
	SubFolders map[string]string // name -> folder id
}

// ClientProfile carries the answers needed to register a client record.
type ClientProfile struct {
	ContactName  string
	BusinessName string
	SubjectKey   string
	Channel      string
	Language     string
	Answers      map[string]string
}

// ClientDirectory is the system of record for created clients and contacts.
type ClientDirectory interface {
	CreateClient(ctx context.Context, profile ClientProfile) (clientID string, err error)
}

// FolderService creates folder trees and makes folders link-shareable.
type FolderService interface {
	// CreateTree creates a root folder with the given sub-folders.
	CreateTree(ctx context.Context, name string, subFolders []string) (*FolderTree, error)
	// ShareLink makes a folder accessible to anyone with the link in the
	// given role, reporting whether sharing took effect.
	ShareLink(ctx context.Context, folderID, role string) (bool, error)
}

// DocumentService creates text documents.
type DocumentService interface {
	CreateDocument(ctx context.Context, title, content, parentID string) (*Resource, error)
}

// RecordService creates structured records (e.g. spreadsheets).
type RecordService interface {
	CreateRecord(ctx context.Context, title string, rows [][]string, parentID string) (*Resource, error)
}

// InviteService creates access-grant invitations scoped to marketing
// platforms.
type InviteService interface {
	CreateInvite(ctx context.Context, clientName, contact string, platforms []string, message string) (*Resource, error)
}

// AuditRecord is written once per finalization attempt.
type AuditRecord struct {
	Action     string            `json:"action"`
	SessionID  string            `json:"session_id"`
	SubjectKey string            `json:"subject_key"`
	Answers    map[string]string `json:"answers"`
	Steps      []string          `json:"steps"`
	Errors     []AuditError      `json:"errors"`
	Result     string            `json:"result"`
}

// AuditError mirrors a failed provisioning step in the audit record.
type AuditError struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

// AuditSink receives finalization audit records.
type AuditSink interface {
	Record(ctx context.Context, rec AuditRecord) error
}
