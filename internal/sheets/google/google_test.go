package google

import (
	"context"
	"strings"
	"testing"

	gsheet "google.golang.org/api/sheets/v4"

	"fooddiary/internal/core"
	"fooddiary/internal/export"
	ports "fooddiary/internal/sheets"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet", CredentialsFile: t.TempDir() + "/nope.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWriteDocument_NotInitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.WriteDocument(context.Background(), export.Document{}); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestFormatRequests(t *testing.T) {
	sheet := ports.Sheet{
		Merges:   []ports.Span{{Row: 4, Col: 0, Rows: 2}},
		Emphasis: []ports.Emphasis{{Row: 4, Col: 4, Bold: true, Italic: true}},
	}

	reqs := formatRequests(7, sheet)
	if len(reqs) != 2 {
		t.Fatalf("requests = %d, want 2", len(reqs))
	}

	merge := reqs[0].MergeCells
	if merge == nil || merge.MergeType != "MERGE_ALL" {
		t.Fatalf("first request = %+v", reqs[0])
	}
	got := merge.Range
	if got.SheetId != 7 || got.StartRowIndex != 4 || got.EndRowIndex != 6 ||
		got.StartColumnIndex != 0 || got.EndColumnIndex != 1 {
		t.Errorf("merge range = %+v", got)
	}

	repeat := reqs[1].RepeatCell
	if repeat == nil {
		t.Fatalf("second request = %+v", reqs[1])
	}
	tf := repeat.Cell.UserEnteredFormat.TextFormat
	if !tf.Bold || !tf.Italic {
		t.Errorf("text format = %+v", tf)
	}
	if repeat.Range.StartRowIndex != 4 || repeat.Range.EndColumnIndex != 5 {
		t.Errorf("repeat range = %+v", repeat.Range)
	}
}

func TestFormatRequestsFromDocument(t *testing.T) {
	milk := &core.Product{Name: "Milk", CaloriesCost: 64}
	pages := []core.Page{{Date: core.NewDate(2024, 3, 10), Notes: []core.Note{
		{ID: 1, MealType: core.Breakfast, Product: milk, ProductQuantity: 100},
		{ID: 2, MealType: core.Breakfast, Product: milk, ProductQuantity: 100},
	}}}
	r := core.DateRange{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}
	sheet, err := ports.BuildSheet(export.BuildDocument("Food diary", r, pages, nil))
	if err != nil {
		t.Fatal(err)
	}

	merges := 0
	for _, req := range formatRequests(1, sheet) {
		if req.MergeCells != nil {
			merges++
		}
	}
	if merges != 2 {
		t.Errorf("merge requests = %d, want 2", merges)
	}
}

func TestAddedSheetID(t *testing.T) {
	resp := &gsheet.BatchUpdateSpreadsheetResponse{Replies: []*gsheet.Response{
		{},
		{AddSheet: &gsheet.AddSheetResponse{Properties: &gsheet.SheetProperties{SheetId: 42}}},
	}}
	id, err := addedSheetID(resp)
	if err != nil || id != 42 {
		t.Fatalf("id = %d, err = %v", id, err)
	}
	if _, err := addedSheetID(&gsheet.BatchUpdateSpreadsheetResponse{}); err == nil {
		t.Fatal("expected error for empty replies")
	}
}
