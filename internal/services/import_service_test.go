package services

import (
	"context"
	"strings"
	"testing"

	"fooddiary/internal/core"
)

const importDoc = `{
  "pages": [
    {
      "date": "2024-04-02",
      "notes": [
        {"mealType": 1, "displayOrder": 5, "productQuantity": 100,
         "product": {"name": "OATS", "caloriesCost": 999, "defaultQuantity": 0, "category": "ignored"}},
        {"mealType": 1, "displayOrder": 2, "productQuantity": 30,
         "product": {"name": "Crème fraîche", "caloriesCost": 292, "defaultQuantity": 0, "category": "Dairy"}}
      ]
    },
    {
      "date": "2024-04-03",
      "notes": [
        {"mealType": 3, "displayOrder": 0, "productQuantity": 200,
         "product": {"name": "CRÈME FRAÎCHE", "caloriesCost": 292, "defaultQuantity": 50, "category": "dairy"}}
      ]
    }
  ]
}`

func TestImportJSON(t *testing.T) {
	s := newTestServices(t)
	f := seedDiary(t, s)
	ctx := context.Background()
	if _, err := s.Notes.Create(ctx, core.NoteInput{PageID: f.page, MealType: core.Dinner, ProductID: f.milk, ProductQuantity: 100}); err != nil {
		t.Fatal(err)
	}

	res, err := s.Imports.ImportJSON(ctx, strings.NewReader(importDoc))
	if err != nil {
		t.Fatal(err)
	}
	want := ImportResult{PagesCreated: 1, PagesReplaced: 1, NotesCreated: 3, ProductsCreated: 1, CategoriesCreated: 1}
	if res != want {
		t.Fatalf("result = %+v, want %+v", res, want)
	}

	// The existing page lost its dinner note; notes are renumbered by file order.
	notes, err := s.Notes.Search(ctx, f.page)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 2 {
		t.Fatalf("notes = %+v", notes)
	}
	if notes[0].Product.Name != "Crème fraîche" || notes[0].DisplayOrder != 0 ||
		notes[1].ProductID != f.oats || notes[1].DisplayOrder != 1 {
		t.Errorf("notes = %+v / %+v", notes[0], notes[1])
	}
	// An existing product keeps its own calories.
	if notes[1].Product.CaloriesCost != 370 {
		t.Errorf("oats calories = %d", notes[1].Product.CaloriesCost)
	}

	created, err := s.Products.Dropdown(ctx, "crème")
	if err != nil || len(created) != 1 || created[0].DefaultQuantity != core.DefaultQuantity {
		t.Fatalf("created product = %+v, %v", created, err)
	}
}

func TestImportJSONRejectsInvalidDocument(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	_, err := s.Imports.ImportJSON(ctx, strings.NewReader(`{"pages": [{"date": "2024-01-01", "notes": [{"mealType": 7}]}]}`))
	requireField(t, err, "pages[0].notes[0].mealType")

	_, err = s.Imports.ImportJSON(ctx, strings.NewReader(`{"pages": [], "extra": true}`))
	requireField(t, err, "importFile")

	list, err := s.Categories.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("rejected import wrote categories: %+v, %v", list, err)
	}
}
