// Package gsuite implements the provisioning collaborators on top of the
// Google Workspace APIs: Drive for folders, Docs for documents, Sheets
// for structured records and the client directory.
package gsuite

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	folderMimeType      = "application/vnd.google-apps.folder"
	documentMimeType    = "application/vnd.google-apps.document"
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
)

// Config carries the Workspace credentials and well-known resource ids.
type Config struct {
	// CredentialsFile is a path to a service-account JSON key. When it
	// starts with '{' it is treated as inline JSON instead.
	CredentialsFile string
	// RootFolderID is the Drive folder all client trees are created
	// under, and the fallback parent when a client tree is missing.
	RootFolderID string
	// ClientsSpreadsheetID is the master sheet acting as the client
	// directory.
	ClientsSpreadsheetID string
}

// Services bundles authenticated Workspace API clients.
type Services struct {
	drive  *drive.Service
	docs   *docs.Service
	sheets *sheets.Service
	cfg    Config
}

// NewServices authenticates against the Workspace APIs with the
// configured service account.
func NewServices(ctx context.Context, cfg Config) (*Services, error) {
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("gsuite: credentials are required")
	}
	opt := option.WithCredentialsFile(cfg.CredentialsFile)
	if strings.HasPrefix(strings.TrimSpace(cfg.CredentialsFile), "{") {
		opt = option.WithCredentialsJSON([]byte(cfg.CredentialsFile))
	}

	driveSvc, err := drive.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("gsuite: drive client: %w", err)
	}
	docsSvc, err := docs.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("gsuite: docs client: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("gsuite: sheets client: %w", err)
	}

	return &Services{
		drive:  driveSvc,
		docs:   docsSvc,
		sheets: sheetsSvc,
		cfg:    cfg,
	}, nil
}

// parents resolves the Drive parents list for a new file. An explicit
// parent wins, then the configured root, then Drive's default location.
func (s *Services) parents(parentID string) []string {
	switch {
	case parentID != "":
		return []string{parentID}
	case s.cfg.RootFolderID != "":
		return []string{s.cfg.RootFolderID}
	default:
		return nil
	}
}
