package gsuite

import (
	"context"
	"fmt"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"

	"github.com/agencykit/onboard/internal/provision"
)

// Documents creates Google Docs seeded with plain-text content.
type Documents struct {
	svc *Services
}

// NewDocuments returns the Docs-backed document service.
func NewDocuments(svc *Services) *Documents {
	return &Documents{svc: svc}
}

var _ provision.DocumentService = (*Documents)(nil)

// CreateDocument creates a document in the given parent folder and writes
// the content into its body. The Docs API cannot place a document into a
// folder, so the file is created through Drive first.
func (d *Documents) CreateDocument(ctx context.Context, title, content, parentID string) (*provision.Resource, error) {
	file, err := d.svc.drive.Files.Create(&drive.File{
		Name:     title,
		MimeType: documentMimeType,
		Parents:  d.svc.parents(parentID),
	}).Fields("id", "webViewLink").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create document %q: %w", title, err)
	}

	if content != "" {
		_, err = d.svc.docs.Documents.BatchUpdate(file.Id, &docs.BatchUpdateDocumentRequest{
			Requests: []*docs.Request{{
				InsertText: &docs.InsertTextRequest{
					Text:     content,
					Location: &docs.Location{Index: 1},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("write document %q: %w", title, err)
		}
	}

	return &provision.Resource{ID: file.Id, URL: file.WebViewLink}, nil
}
