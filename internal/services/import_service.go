package services

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"fooddiary/internal/core"
	"fooddiary/internal/export"
	"fooddiary/internal/storage"
)

// ImportResult counts what an import changed.
type ImportResult struct {
	PagesCreated      int
	PagesReplaced     int
	NotesCreated      int
	ProductsCreated   int
	CategoriesCreated int
}

// ImportService loads diary documents produced by the JSON export.
type ImportService struct {
	repo     *storage.SQLiteRepository
	dropdown *DropdownCache
}

func NewImportService(repo *storage.SQLiteRepository, dropdown *DropdownCache) *ImportService {
	return &ImportService{repo: repo, dropdown: dropdown}
}

// ImportJSON decodes a diary document and stores it in one transaction.
// Categories and products are matched by case-folded name and created when
// missing. A page that already exists has its notes replaced.
func (s *ImportService) ImportJSON(ctx context.Context, r io.Reader) (ImportResult, error) {
	diary, err := export.DecodeJSON(r)
	if err != nil {
		return ImportResult{}, err
	}

	var res ImportResult
	err = s.repo.WithTx(ctx, func(q *storage.Queries) error {
		imp, err := newImporter(ctx, q)
		if err != nil {
			return err
		}
		for _, p := range diary.Pages {
			if err := imp.page(ctx, p); err != nil {
				return fmt.Errorf("import page %s: %w", p.Date, err)
			}
		}
		res = imp.result
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	if res.ProductsCreated > 0 || res.CategoriesCreated > 0 {
		s.dropdown.Invalidate()
	}
	slog.InfoContext(ctx, "Diary imported",
		"pages_created", res.PagesCreated,
		"pages_replaced", res.PagesReplaced,
		"notes", res.NotesCreated,
		"products_created", res.ProductsCreated,
		"categories_created", res.CategoriesCreated)
	return res, nil
}

type importer struct {
	q          *storage.Queries
	fold       cases.Caser
	categories map[string]int64
	products   map[string]int64
	result     ImportResult
}

func newImporter(ctx context.Context, q *storage.Queries) (*importer, error) {
	imp := &importer{
		q:          q,
		fold:       cases.Fold(),
		categories: make(map[string]int64),
		products:   make(map[string]int64),
	}
	categories, err := q.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		imp.categories[imp.key(c.Name)] = c.ID
	}
	products, err := q.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		imp.products[imp.key(p.Name)] = p.ID
	}
	return imp, nil
}

func (imp *importer) key(name string) string {
	return imp.fold.String(strings.TrimSpace(name))
}

func (imp *importer) page(ctx context.Context, p export.DiaryPage) error {
	var pageID int64
	existing, err := imp.q.PageByDate(ctx, p.Date)
	switch {
	case err == nil:
		pageID = existing.ID
		if err := imp.q.DeleteNotesOfPage(ctx, pageID); err != nil {
			return err
		}
		imp.result.PagesReplaced++
	case isNotFound(err):
		if pageID, err = imp.q.CreatePage(ctx, p.Date); err != nil {
			return err
		}
		imp.result.PagesCreated++
	default:
		return err
	}

	// Display orders are renumbered densely inside each meal group,
	// keeping the relative order of the file.
	notes := slices.Clone(p.Notes)
	slices.SortStableFunc(notes, func(a, b export.DiaryNote) int {
		if c := core.CompareMealTypes(a.MealType, b.MealType); c != 0 {
			return c
		}
		return cmp.Compare(a.DisplayOrder, b.DisplayOrder)
	})
	next := make(map[core.MealType]int)
	for _, n := range notes {
		productID, err := imp.product(ctx, n.Product)
		if err != nil {
			return err
		}
		_, err = imp.q.InsertNote(ctx, core.Note{
			PageID:          pageID,
			MealType:        n.MealType,
			ProductID:       productID,
			ProductQuantity: n.ProductQuantity,
			DisplayOrder:    next[n.MealType],
		})
		if err != nil {
			return err
		}
		next[n.MealType]++
		imp.result.NotesCreated++
	}
	return nil
}

func (imp *importer) product(ctx context.Context, p export.DiaryProduct) (int64, error) {
	if id, ok := imp.products[imp.key(p.Name)]; ok {
		return id, nil
	}
	categoryID, err := imp.category(ctx, p.Category)
	if err != nil {
		return 0, err
	}
	in := core.ProductInput{
		Name:            p.Name,
		CaloriesCost:    p.CaloriesCost,
		DefaultQuantity: p.DefaultQuantity,
		CategoryID:      categoryID,
	}.Normalize()
	id, err := imp.q.CreateProduct(ctx, in)
	if err != nil {
		return 0, err
	}
	imp.products[imp.key(p.Name)] = id
	imp.result.ProductsCreated++
	return id, nil
}

func (imp *importer) category(ctx context.Context, name string) (int64, error) {
	if id, ok := imp.categories[imp.key(name)]; ok {
		return id, nil
	}
	name = strings.TrimSpace(name)
	id, err := imp.q.CreateCategory(ctx, name)
	if err != nil {
		return 0, err
	}
	imp.categories[imp.key(name)] = id
	imp.result.CategoriesCreated++
	return id, nil
}
