package services

import (
	"context"
	"errors"
	"testing"

	"fooddiary/internal/core"
	"fooddiary/internal/notestable"
)

type diaryFixture struct {
	milk, oats int64
	page       int64
}

func seedDiary(t *testing.T, s *Services) diaryFixture {
	t.Helper()
	ctx := context.Background()
	cat, err := s.Categories.Create(ctx, core.CategoryInput{Name: "Breakfast food"})
	if err != nil {
		t.Fatal(err)
	}
	var f diaryFixture
	if f.milk, err = s.Products.Create(ctx, core.ProductInput{Name: "Milk", CaloriesCost: 64, DefaultQuantity: 200, CategoryID: cat}); err != nil {
		t.Fatal(err)
	}
	if f.oats, err = s.Products.Create(ctx, core.ProductInput{Name: "Oats", CaloriesCost: 370, DefaultQuantity: 60, CategoryID: cat}); err != nil {
		t.Fatal(err)
	}
	if f.page, err = s.Pages.Create(ctx, core.PageInput{Date: core.NewDate(2024, 4, 2)}); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestPageService(t *testing.T) {
	s := newTestServices(t)
	f := seedDiary(t, s)
	ctx := context.Background()

	_, err := s.Pages.Create(ctx, core.PageInput{Date: core.NewDate(2024, 4, 2)})
	requireField(t, err, "date")
	_, err = s.Pages.Create(ctx, core.PageInput{})
	requireField(t, err, "date")

	before, err := s.Pages.Create(ctx, core.PageInput{Date: core.NewDate(2024, 4, 1)})
	if err != nil {
		t.Fatal(err)
	}
	after, err := s.Pages.Create(ctx, core.PageInput{Date: core.NewDate(2024, 4, 5)})
	if err != nil {
		t.Fatal(err)
	}

	view, err := s.Pages.Get(ctx, f.page)
	if err != nil {
		t.Fatal(err)
	}
	if view.Previous == nil || view.Previous.ID != before || view.Next == nil || view.Next.ID != after {
		t.Fatalf("neighbours = %+v / %+v", view.Previous, view.Next)
	}
	if _, err := s.Pages.Get(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get missing = %v", err)
	}

	requireField(t, s.Pages.Update(ctx, after, core.PageInput{Date: core.NewDate(2024, 4, 1)}), "date")
	if err := s.Pages.Update(ctx, after, core.PageInput{Date: core.NewDate(2024, 4, 6)}); err != nil {
		t.Fatal(err)
	}

	found, total, err := s.Pages.Search(ctx, core.PageFilter{
		Start:  core.NewDate(2024, 4, 2),
		Sort:   core.SortDescending,
		Paging: core.Paging{PageNumber: 1, PageSize: 10},
	})
	if err != nil || total != 2 || found[0].ID != after {
		t.Fatalf("Search = %+v, %d, %v", found, total, err)
	}
	_, _, err = s.Pages.Search(ctx, core.PageFilter{
		Start:  core.NewDate(2024, 4, 3),
		End:    core.NewDate(2024, 4, 2),
		Paging: core.Paging{PageNumber: 1, PageSize: 10},
	})
	requireField(t, err, "endDate")

	if err := s.Pages.DeleteBatch(ctx, []int64{before, 999}); !errors.Is(err, core.ErrInvalidIDs) {
		t.Fatalf("DeleteBatch with unknown id = %v", err)
	}
	if err := s.Pages.DeleteBatch(ctx, []int64{before, after}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Pages.Get(ctx, before); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("deleted page still there: %v", err)
	}
}

func TestNoteServiceAndTable(t *testing.T) {
	s := newTestServices(t)
	f := seedDiary(t, s)
	ctx := context.Background()

	add := func(meal core.MealType, product int64, qty int) int64 {
		t.Helper()
		id, err := s.Notes.Create(ctx, core.NoteInput{PageID: f.page, MealType: meal, ProductID: product, ProductQuantity: qty})
		if err != nil {
			t.Fatal(err)
		}
		return id
	}
	milk := add(core.Breakfast, f.milk, 200)
	oats := add(core.Breakfast, f.oats, 60)
	dinner := add(core.Dinner, f.milk, 100)

	_, err := s.Notes.Create(ctx, core.NoteInput{PageID: 999, MealType: core.Lunch, ProductID: f.milk, ProductQuantity: 10})
	requireField(t, err, "pageId")
	_, err = s.Notes.Create(ctx, core.NoteInput{PageID: f.page, MealType: core.Lunch, ProductID: 999, ProductQuantity: 10})
	requireField(t, err, "productId")
	_, err = s.Notes.Create(ctx, core.NoteInput{PageID: f.page, MealType: core.MealType(9), ProductID: f.milk, ProductQuantity: 0})
	requireField(t, err, "mealType")

	if err := s.Notes.Move(ctx, core.NoteMove{NoteID: oats, MealType: core.Breakfast, Position: 0}); err != nil {
		t.Fatal(err)
	}
	// Same group: the last valid position is len(group)-1.
	err = s.Notes.Move(ctx, core.NoteMove{NoteID: oats, MealType: core.Breakfast, Position: 2})
	if !errors.Is(err, core.ErrInvalidMove) {
		t.Fatalf("move past end = %v", err)
	}

	notes, err := s.Notes.Search(ctx, f.page)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 3 || notes[0].ID != oats || notes[1].ID != milk || notes[2].ID != dinner {
		t.Fatalf("order after move = %+v", notes)
	}
	if _, err := s.Notes.Search(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("search missing page = %v", err)
	}

	table, err := s.Pages.Table(ctx, core.NewDate(2024, 4, 2))
	if err != nil {
		t.Fatal(err)
	}
	// 222 + 128 breakfast, 64 dinner.
	if table.TotalCalories != 414 || len(table.Layout.Groups) != 2 {
		t.Fatalf("table = %+v", table)
	}
	if got := table.Layout.Rows[0].Cells[notestable.ProductColumn].Text; got != "Oats" {
		t.Errorf("first product = %q", got)
	}
	if _, err := s.Pages.Table(ctx, core.NewDate(2030, 1, 1)); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("table of missing page = %v", err)
	}

	history, err := s.Pages.CaloriesHistory(ctx, core.DateRange{Start: core.NewDate(2024, 4, 1), End: core.NewDate(2024, 4, 30)})
	if err != nil || len(history) != 1 || history[0].Calories != 414 {
		t.Fatalf("history = %+v, %v", history, err)
	}

	if err := s.Notes.Update(ctx, milk, core.NoteInput{PageID: f.page, MealType: core.Dinner, ProductID: f.milk, ProductQuantity: 150}); err != nil {
		t.Fatal(err)
	}
	moved, _ := s.Notes.Get(ctx, milk)
	if moved.MealType != core.Dinner || moved.DisplayOrder != 1 {
		t.Errorf("updated note = %+v", moved)
	}

	if err := s.Notes.DeleteBatch(ctx, []int64{oats, 999}); !errors.Is(err, core.ErrInvalidIDs) {
		t.Fatalf("DeleteBatch with unknown id = %v", err)
	}
	if err := s.Notes.Delete(ctx, dinner); err != nil {
		t.Fatal(err)
	}
	rest, _ := s.Notes.Search(ctx, f.page)
	for _, n := range rest {
		if n.ID == milk && n.DisplayOrder != 0 {
			t.Errorf("dinner group not compacted: %+v", n)
		}
	}
	if err := s.Notes.Delete(ctx, dinner); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete = %v", err)
	}
}
