package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fooddiary/internal/export"
	ports "fooddiary/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Ensure interface conformance
var _ ports.DocumentWriter = (*Client)(nil)

// Config selects the target spreadsheet and the service account used to reach it.
// CredentialsJSON wins over CredentialsFile; with neither set
// GOOGLE_APPLICATION_CREDENTIALS is read.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	creds, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read service account credentials", "path", file, "size", len(b))
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteDocument writes doc to its own tab, replacing a tab of the same title
// left by an earlier export of the same range.
func (c *Client) WriteDocument(ctx context.Context, doc export.Document) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet, err := ports.BuildSheet(doc)
	if err != nil {
		return "", fmt.Errorf("build sheet: %w", err)
	}

	existing, err := c.sheetID(ctx, sheet.Title)
	if err != nil {
		return "", err
	}

	var setup []*gsheet.Request
	if existing != nil {
		setup = append(setup, &gsheet.Request{DeleteSheet: &gsheet.DeleteSheetRequest{SheetId: *existing}})
	}
	setup = append(setup, &gsheet.Request{AddSheet: &gsheet.AddSheetRequest{
		Properties: &gsheet.SheetProperties{
			Title: sheet.Title,
			GridProperties: &gsheet.GridProperties{
				RowCount:       int64(max(len(sheet.Values), 1)),
				ColumnCount:    int64(len(sheet.Values[0])),
				FrozenRowCount: 1,
			},
		},
	}})
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: setup,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("add sheet %s: %w", sheet.Title, err)
	}
	sheetID, err := addedSheetID(resp)
	if err != nil {
		return "", err
	}

	rng := sheet.Range()
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: sheet.Values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write values %s: %w", rng, err)
	}

	if reqs := formatRequests(sheetID, sheet); len(reqs) > 0 {
		_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
			Requests: reqs,
		}).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("format sheet %s: %w", sheet.Title, err)
		}
	}

	slog.InfoContext(ctx, "Wrote export to Google Sheets",
		"sheets_ref", rng,
		"rows", len(sheet.Values),
		"merges", len(sheet.Merges))
	return rng, nil
}

// sheetID returns the id of the tab called title, or nil when there is none.
func (c *Client) sheetID(ctx context.Context, title string) (*int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			id := s.Properties.SheetId
			return &id, nil
		}
	}
	return nil, nil
}

func addedSheetID(resp *gsheet.BatchUpdateSpreadsheetResponse) (int64, error) {
	for _, r := range resp.Replies {
		if r != nil && r.AddSheet != nil && r.AddSheet.Properties != nil {
			return r.AddSheet.Properties.SheetId, nil
		}
	}
	return 0, errors.New("add sheet: no sheet id in response")
}

// formatRequests converts the merges and emphasis of sheet into BatchUpdate requests.
func formatRequests(sheetID int64, sheet ports.Sheet) []*gsheet.Request {
	reqs := make([]*gsheet.Request, 0, len(sheet.Merges)+len(sheet.Emphasis))
	for _, m := range sheet.Merges {
		reqs = append(reqs, &gsheet.Request{MergeCells: &gsheet.MergeCellsRequest{
			Range:     gridRange(sheetID, m.Row, m.Col, m.Rows),
			MergeType: "MERGE_ALL",
		}})
	}
	for _, e := range sheet.Emphasis {
		reqs = append(reqs, &gsheet.Request{RepeatCell: &gsheet.RepeatCellRequest{
			Range: gridRange(sheetID, e.Row, e.Col, 1),
			Cell: &gsheet.CellData{UserEnteredFormat: &gsheet.CellFormat{
				TextFormat:        &gsheet.TextFormat{Bold: e.Bold, Italic: e.Italic},
				VerticalAlignment: "MIDDLE",
			}},
			Fields: "userEnteredFormat(textFormat,verticalAlignment)",
		}})
	}
	return reqs
}

func gridRange(sheetID int64, row, col, rows int) *gsheet.GridRange {
	return &gsheet.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    int64(row),
		EndRowIndex:      int64(row + rows),
		StartColumnIndex: int64(col),
		EndColumnIndex:   int64(col + 1),
		ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
	}
}
