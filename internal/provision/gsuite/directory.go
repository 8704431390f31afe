package gsuite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/sheets/v4"

	"github.com/agencykit/onboard/internal/provision"
)

// directoryRange is where new client rows are appended in the master
// sheet.
const directoryRange = "A:H"

// Directory registers clients as rows in a master spreadsheet.
type Directory struct {
	svc *Services
}

// NewDirectory returns the Sheets-backed client directory.
func NewDirectory(svc *Services) *Directory {
	return &Directory{svc: svc}
}

var _ provision.ClientDirectory = (*Directory)(nil)

// CreateClient appends a client row to the master sheet and returns the
// generated client id.
func (d *Directory) CreateClient(ctx context.Context, profile provision.ClientProfile) (string, error) {
	if d.svc.cfg.ClientsSpreadsheetID == "" {
		return "", fmt.Errorf("gsuite: clients spreadsheet is not configured")
	}

	clientID := "cl_" + uuid.NewString()
	row := []interface{}{
		clientID,
		profile.BusinessName,
		profile.ContactName,
		profile.SubjectKey,
		profile.Channel,
		profile.Language,
		profile.Answers["budget"],
		time.Now().UTC().Format(time.RFC3339),
	}

	_, err := d.svc.sheets.Spreadsheets.Values.Append(d.svc.cfg.ClientsSpreadsheetID, directoryRange, &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append client row: %w", err)
	}
	return clientID, nil
}
