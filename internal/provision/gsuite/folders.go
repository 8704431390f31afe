package gsuite

import (
	"context"
	"fmt"

	"google.golang.org/api/drive/v3"

	"github.com/agencykit/onboard/internal/provision"
)

// Folders creates client folder trees in Drive.
type Folders struct {
	svc *Services
}

// NewFolders returns the Drive-backed folder service.
func NewFolders(svc *Services) *Folders {
	return &Folders{svc: svc}
}

var _ provision.FolderService = (*Folders)(nil)

// CreateTree creates a root folder under the configured parent plus the
// named sub-folders inside it.
func (f *Folders) CreateTree(ctx context.Context, name string, subFolders []string) (*provision.FolderTree, error) {
	root, err := f.svc.drive.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  f.svc.parents(""),
	}).Fields("id", "webViewLink").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create root folder %q: %w", name, err)
	}

	tree := &provision.FolderTree{
		RootID:     root.Id,
		RootURL:    root.WebViewLink,
		SubFolders: make(map[string]string, len(subFolders)),
	}
	for _, sub := range subFolders {
		child, err := f.svc.drive.Files.Create(&drive.File{
			Name:     sub,
			MimeType: folderMimeType,
			Parents:  []string{root.Id},
		}).Fields("id").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("create sub-folder %q: %w", sub, err)
		}
		tree.SubFolders[sub] = child.Id
	}
	return tree, nil
}

// ShareLink grants anyone-with-the-link access to the folder in the given
// role.
func (f *Folders) ShareLink(ctx context.Context, folderID, role string) (bool, error) {
	_, err := f.svc.drive.Permissions.Create(folderID, &drive.Permission{
		Type: "anyone",
		Role: role,
	}).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("share folder %s: %w", folderID, err)
	}
	return true, nil
}
