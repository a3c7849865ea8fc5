//go:build integration

package google

import (
	"context"
	"os"
	"strings"
	"testing"

	"fooddiary/internal/core"
	"fooddiary/internal/export"
)

// Integration tests require a real spreadsheet shared with a service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_WriteDocument(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	cfg := Config{
		SpreadsheetID:   spreadsheetID,
		CredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),
	}
	if cfg.CredentialsJSON == "" && cfg.CredentialsFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx := context.Background()
	client, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	milk := &core.Product{Name: "Milk", CaloriesCost: 64}
	r := core.DateRange{Start: core.NewDate(2000, 1, 1), End: core.NewDate(2000, 1, 1)}
	pages := []core.Page{{Date: r.Start, Notes: []core.Note{
		{ID: 1, MealType: core.Breakfast, Product: milk, ProductQuantity: 200},
		{ID: 2, MealType: core.Breakfast, Product: milk, ProductQuantity: 100},
	}}}
	doc := export.BuildDocument("Integration test", r, pages, nil)

	// Writing twice exercises the replace path.
	for i := 0; i < 2; i++ {
		ref, err := client.WriteDocument(ctx, doc)
		if err != nil {
			t.Fatalf("WriteDocument #%d: %v", i+1, err)
		}
		if !strings.Contains(ref, "Diary 2000-01-01 to 2000-01-01") {
			t.Errorf("unexpected ref %q", ref)
		}
	}
}
