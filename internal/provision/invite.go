package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// LinkInvites issues access-grant invitations as one-time links under a
// configured base URL. The token encodes nothing; the operator-side
// handler resolving the link owns the grant.
type LinkInvites struct {
	baseURL string
}

// NewLinkInvites returns an invite service minting links under baseURL.
func NewLinkInvites(baseURL string) *LinkInvites {
	return &LinkInvites{baseURL: strings.TrimRight(baseURL, "/")}
}

var _ InviteService = (*LinkInvites)(nil)

// CreateInvite mints an invitation link scoped to the given platforms.
func (l *LinkInvites) CreateInvite(_ context.Context, clientName, contact string, platforms []string, _ string) (*Resource, error) {
	if contact == "" {
		return nil, fmt.Errorf("invite for %q has no contact", clientName)
	}
	token := uuid.NewString()
	url := fmt.Sprintf("%s/invite/%s?platforms=%s", l.baseURL, token, strings.Join(platforms, ","))
	return &Resource{ID: token, URL: url}, nil
}
