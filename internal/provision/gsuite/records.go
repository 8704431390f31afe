package gsuite

import (
	"context"
	"fmt"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"

	"github.com/agencykit/onboard/internal/provision"
)

// Records creates Google Sheets holding structured client data.
type Records struct {
	svc *Services
}

// NewRecords returns the Sheets-backed record service.
func NewRecords(svc *Services) *Records {
	return &Records{svc: svc}
}

var _ provision.RecordService = (*Records)(nil)

// CreateRecord creates a spreadsheet in the given parent folder, writes
// the rows starting at A1 and bolds the header row.
func (r *Records) CreateRecord(ctx context.Context, title string, rows [][]string, parentID string) (*provision.Resource, error) {
	file, err := r.svc.drive.Files.Create(&drive.File{
		Name:     title,
		MimeType: spreadsheetMimeType,
		Parents:  r.svc.parents(parentID),
	}).Fields("id", "webViewLink").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create spreadsheet %q: %w", title, err)
	}

	if len(rows) > 0 {
		values := make([][]interface{}, len(rows))
		for i, row := range rows {
			cells := make([]interface{}, len(row))
			for j, cell := range row {
				cells[j] = cell
			}
			values[i] = cells
		}
		_, err = r.svc.sheets.Spreadsheets.Values.Update(file.Id, "A1", &sheets.ValueRange{
			Values: values,
		}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("write spreadsheet %q: %w", title, err)
		}

		_, err = r.svc.sheets.Spreadsheets.BatchUpdate(file.Id, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:       0,
						StartRowIndex: 0,
						EndRowIndex:   1,
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							TextFormat: &sheets.TextFormat{Bold: true},
						},
					},
					Fields: "userEnteredFormat.textFormat.bold",
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("format spreadsheet %q: %w", title, err)
		}
	}

	return &provision.Resource{ID: file.Id, URL: file.WebViewLink}, nil
}
