package services

import (
	"context"
	"fmt"
	"log/slog"

	"fooddiary/internal/core"
	"fooddiary/internal/export"
	"fooddiary/internal/notestable"
	"fooddiary/internal/storage"
)

// PageView is a diary page with its notes and the pages on either side.
type PageView struct {
	Current  core.Page
	Previous *core.Page
	Next     *core.Page
}

// PageService manages diary pages.
type PageService struct {
	repo     *storage.SQLiteRepository
	renderer *notestable.Renderer
}

// NewPageService returns a PageService rendering tables with renderer, or
// the default renderer when nil.
func NewPageService(repo *storage.SQLiteRepository, renderer *notestable.Renderer) *PageService {
	if renderer == nil {
		renderer = notestable.NewRenderer(nil, nil, nil)
	}
	return &PageService{repo: repo, renderer: renderer}
}

// Search returns one page of diary pages and the total number of matches.
func (s *PageService) Search(ctx context.Context, f core.PageFilter) ([]core.PageSummary, int, error) {
	if err := f.Paging.Validate(); err != nil {
		return nil, 0, err
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start.Time) {
		return nil, 0, core.NewValidationError("endDate", "End date must not be earlier than start date")
	}
	return s.repo.SearchPages(ctx, f)
}

// Get returns the page with its notes and its neighbours by date.
func (s *PageService) Get(ctx context.Context, id int64) (PageView, error) {
	page, err := s.repo.GetPage(ctx, id)
	if err != nil {
		return PageView{}, err
	}
	if page.Notes, err = s.repo.NotesByPage(ctx, id); err != nil {
		return PageView{}, err
	}
	prev, next, err := s.repo.AdjacentPages(ctx, page.Date)
	if err != nil {
		return PageView{}, err
	}
	return PageView{Current: page, Previous: prev, Next: next}, nil
}

// Create adds a page for an unused date and returns its id.
func (s *PageService) Create(ctx context.Context, in core.PageInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if err := s.checkUniqueDate(ctx, in.Date, 0); err != nil {
		return 0, err
	}
	id, err := s.repo.CreatePage(ctx, in.Date)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Page created", "page_id", id, "date", in.Date.String())
	return id, nil
}

func (s *PageService) Update(ctx context.Context, id int64, in core.PageInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetPage(ctx, id); err != nil {
		return err
	}
	if err := s.checkUniqueDate(ctx, in.Date, id); err != nil {
		return err
	}
	return s.repo.UpdatePage(ctx, id, in.Date)
}

// DeleteBatch removes the pages and their notes. Nothing is deleted unless
// every id exists.
func (s *PageService) DeleteBatch(ctx context.Context, ids []int64) error {
	ids, err := uniqueIDs(ids)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(q *storage.Queries) error {
		found, err := q.GetPages(ctx, ids)
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			return core.ErrInvalidIDs
		}
		_, err = q.DeletePages(ctx, ids)
		return err
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Pages deleted", "count", len(ids))
	return nil
}

// CaloriesHistory returns the calories of every page in r.
func (s *PageService) CaloriesHistory(ctx context.Context, r core.DateRange) ([]core.DailyCalories, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return s.repo.CaloriesHistory(ctx, r)
}

// Table renders the meal-grouped notes table of the page dated d.
func (s *PageService) Table(ctx context.Context, d core.Date) (export.PageTable, error) {
	if err := d.Validate(); err != nil {
		return export.PageTable{}, core.NewValidationError("date", "Date is required")
	}
	pages, err := s.repo.PagesWithNotes(ctx, core.DateRange{Start: d, End: d})
	if err != nil {
		return export.PageTable{}, err
	}
	if len(pages) == 0 {
		return export.PageTable{}, fmt.Errorf("page dated %s: %w", d, core.ErrNotFound)
	}
	layout := s.renderer.Render(pages[0].Notes)
	return export.PageTable{
		PageID:        pages[0].ID,
		Date:          pages[0].Date,
		Layout:        layout,
		TotalCalories: layout.TotalCalories(),
	}, nil
}

func (s *PageService) checkUniqueDate(ctx context.Context, d core.Date, self int64) error {
	existing, err := s.repo.PageByDate(ctx, d)
	switch {
	case isNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("check page date: %w", err)
	case existing.ID == self:
		return nil
	}
	return core.NewValidationError("date", "Page with the date '%s' already exists", d)
}
