package services

import (
	"context"
	"errors"
	"testing"

	"fooddiary/internal/core"
)

func TestCategoryService(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	fruit, err := s.Categories.Create(ctx, core.CategoryInput{Name: "  Fruit "})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Categories.Get(ctx, fruit)
	if err != nil || got.Name != "Fruit" {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	_, err = s.Categories.Create(ctx, core.CategoryInput{Name: "fruit"})
	requireField(t, err, "name")

	_, err = s.Categories.Create(ctx, core.CategoryInput{Name: "   "})
	requireField(t, err, "name")

	veg, err := s.Categories.Create(ctx, core.CategoryInput{Name: "Vegetables"})
	if err != nil {
		t.Fatal(err)
	}

	// Renaming to its own name with a different case is allowed.
	if err := s.Categories.Update(ctx, fruit, core.CategoryInput{Name: "FRUIT"}); err != nil {
		t.Fatal(err)
	}
	requireField(t, s.Categories.Update(ctx, veg, core.CategoryInput{Name: "Fruit"}), "name")
	if err := s.Categories.Update(ctx, 999, core.CategoryInput{Name: "Nuts"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update missing = %v", err)
	}

	list, err := s.Categories.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("List = %+v, %v", list, err)
	}

	if err := s.Categories.Delete(ctx, veg); err != nil {
		t.Fatal(err)
	}
	if err := s.Categories.Delete(ctx, veg); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete = %v", err)
	}
}

func TestCategoryDropdownCache(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	if _, err := s.Categories.Create(ctx, core.CategoryInput{Name: "Dairy"}); err != nil {
		t.Fatal(err)
	}

	first, err := s.Categories.Dropdown(ctx, "dai")
	if err != nil || len(first) != 1 {
		t.Fatalf("Dropdown = %+v, %v", first, err)
	}
	if _, err := s.Categories.Dropdown(ctx, " DAI "); err != nil {
		t.Fatal(err)
	}
	cats, _ := s.Categories.dropdown.Stats()
	if cats.Hits != 1 || cats.Misses != 1 {
		t.Errorf("stats after repeat = %+v", cats)
	}

	// A write purges the cache, so the new category shows up.
	if _, err := s.Categories.Create(ctx, core.CategoryInput{Name: "Daikon roots"}); err != nil {
		t.Fatal(err)
	}
	after, err := s.Categories.Dropdown(ctx, "dai")
	if err != nil || len(after) != 2 {
		t.Fatalf("Dropdown after create = %+v, %v", after, err)
	}
}

func TestProductService(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	cat, err := s.Categories.Create(ctx, core.CategoryInput{Name: "Bakery"})
	if err != nil {
		t.Fatal(err)
	}

	bread, err := s.Products.Create(ctx, core.ProductInput{Name: "Bread", CaloriesCost: 250, CategoryID: cat})
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.Products.Get(ctx, bread)
	if err != nil {
		t.Fatal(err)
	}
	if p.DefaultQuantity != core.DefaultQuantity || p.CategoryName() != "Bakery" {
		t.Errorf("product = %+v", p)
	}

	tests := []struct {
		name  string
		in    core.ProductInput
		field string
	}{
		{"duplicate name", core.ProductInput{Name: "bread", CaloriesCost: 100, CategoryID: cat}, "name"},
		{"short name", core.ProductInput{Name: "B", CaloriesCost: 100, CategoryID: cat}, "name"},
		{"calories too high", core.ProductInput{Name: "Cake", CaloriesCost: 3001, CategoryID: cat}, "caloriesCost"},
		{"quantity too high", core.ProductInput{Name: "Cake", CaloriesCost: 300, DefaultQuantity: 1000, CategoryID: cat}, "defaultQuantity"},
		{"unknown category", core.ProductInput{Name: "Cake", CaloriesCost: 300, CategoryID: 42}, "categoryId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Products.Create(ctx, tt.in)
			requireField(t, err, tt.field)
		})
	}

	roll, err := s.Products.Create(ctx, core.ProductInput{Name: "Roll", CaloriesCost: 280, DefaultQuantity: 50, CategoryID: cat})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Products.Update(ctx, roll, core.ProductInput{Name: "Bread roll", CaloriesCost: 280, CategoryID: cat}); err != nil {
		t.Fatal(err)
	}

	found, total, err := s.Products.Search(ctx, core.ProductFilter{CategoryID: cat, Name: "roll", Paging: core.Paging{PageNumber: 1, PageSize: 10}})
	if err != nil || total != 1 || found[0].ID != roll {
		t.Fatalf("Search = %+v, %d, %v", found, total, err)
	}
	_, _, err = s.Products.Search(ctx, core.ProductFilter{CategoryID: 999, Paging: core.Paging{PageNumber: 1, PageSize: 10}})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("search unknown category = %v", err)
	}
	_, _, err = s.Products.Search(ctx, core.ProductFilter{Paging: core.Paging{PageNumber: 0, PageSize: 500}})
	requireField(t, err, "pageNumber")

	if err := s.Products.DeleteBatch(ctx, []int64{bread, 999}); !errors.Is(err, core.ErrInvalidIDs) {
		t.Fatalf("DeleteBatch with unknown id = %v", err)
	}
	if _, err := s.Products.Get(ctx, bread); err != nil {
		t.Fatal("partial batch deleted a product")
	}
	if err := s.Products.DeleteBatch(ctx, []int64{bread, roll, bread}); err != nil {
		t.Fatal(err)
	}
	if err := s.Products.Delete(ctx, bread); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete removed product = %v", err)
	}
}

func TestProductDropdownInvalidatedByCategoryRename(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()
	cat, _ := s.Categories.Create(ctx, core.CategoryInput{Name: "Drinks"})
	if _, err := s.Products.Create(ctx, core.ProductInput{Name: "Juice", CaloriesCost: 45, CategoryID: cat}); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Products.Dropdown(ctx, "ju"); err != nil {
		t.Fatal(err)
	}
	if err := s.Categories.Update(ctx, cat, core.CategoryInput{Name: "Beverages"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Products.Dropdown(ctx, "ju")
	if err != nil || len(got) != 1 {
		t.Fatalf("Dropdown = %+v, %v", got, err)
	}
	if got[0].CategoryName() != "Beverages" {
		t.Errorf("category = %q, want the renamed one", got[0].CategoryName())
	}
}
