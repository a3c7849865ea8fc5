package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fooddiary/internal/core"
	"fooddiary/internal/export"
)

func testDocument() export.Document {
	bread := &core.Product{Name: "Bread", CaloriesCost: 250}
	r := core.DateRange{Start: core.NewDate(2024, 2, 1), End: core.NewDate(2024, 2, 29)}
	pages := []core.Page{{Date: core.NewDate(2024, 2, 3), Notes: []core.Note{
		{ID: 1, MealType: core.Lunch, Product: bread, ProductQuantity: 80},
	}}}
	return export.BuildDocument("Food diary", r, pages, nil)
}

func TestStoreWriteDocument(t *testing.T) {
	s := New()
	ref, err := s.WriteDocument(context.Background(), testDocument())
	if err != nil {
		t.Fatal(err)
	}
	if ref != "mem:Diary 2024-02-01 to 2024-02-29" {
		t.Fatalf("ref = %q", ref)
	}

	// Same range again replaces the sheet.
	if _, err := s.WriteDocument(context.Background(), testDocument()); err != nil {
		t.Fatal(err)
	}
	titles := s.Titles()
	if len(titles) != 1 {
		t.Fatalf("titles = %v", titles)
	}
	sheet, ok := s.Sheet(titles[0])
	if !ok || len(sheet.Values) == 0 {
		t.Fatalf("sheet = %+v, %v", sheet, ok)
	}
}

func TestStoreWritesTSV(t *testing.T) {
	dir := t.TempDir()
	s, err := NewWithDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.WriteDocument(context.Background(), testDocument()); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "Diary_2024-02-01_to_2024-02-29.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "Lunch\tBread\t80\t200\t200") {
		t.Errorf("tsv = %q", b)
	}
}
