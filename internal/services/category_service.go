package services

import (
	"context"
	"fmt"
	"log/slog"

	"fooddiary/internal/core"
	"fooddiary/internal/storage"
)

// CategoryService manages product categories.
type CategoryService struct {
	repo     *storage.SQLiteRepository
	dropdown *DropdownCache
}

func NewCategoryService(repo *storage.SQLiteRepository, dropdown *DropdownCache) *CategoryService {
	return &CategoryService{repo: repo, dropdown: dropdown}
}

// List returns every category with the number of its products.
func (s *CategoryService) List(ctx context.Context) ([]core.CategorySummary, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// Create adds a category and returns its id. Names are unique ignoring case.
func (s *CategoryService) Create(ctx context.Context, in core.CategoryInput) (int64, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return 0, err
	}
	if err := s.checkUniqueName(ctx, in.Name, 0); err != nil {
		return 0, err
	}

	id, err := s.repo.CreateCategory(ctx, in.Name)
	if err != nil {
		return 0, err
	}
	s.dropdown.Invalidate()
	slog.InfoContext(ctx, "Category created", "category_id", id, "name", in.Name)
	return id, nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, in core.CategoryInput) error {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetCategory(ctx, id); err != nil {
		return err
	}
	if err := s.checkUniqueName(ctx, in.Name, id); err != nil {
		return err
	}

	if err := s.repo.UpdateCategory(ctx, id, in.Name); err != nil {
		return err
	}
	s.dropdown.Invalidate()
	return nil
}

// Delete removes the category with its products and their notes.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.dropdown.Invalidate()
	slog.InfoContext(ctx, "Category deleted", "category_id", id)
	return nil
}

// Dropdown returns categories whose name contains filter.
func (s *CategoryService) Dropdown(ctx context.Context, filter string) ([]core.Category, error) {
	key := dropdownKey(filter)
	if s.dropdown != nil {
		if cached, ok := s.dropdown.categories.Get(key); ok {
			return cached, nil
		}
	}
	out, err := s.repo.CategoryDropdown(ctx, key)
	if err != nil {
		return nil, err
	}
	if s.dropdown != nil {
		s.dropdown.categories.Set(key, out)
	}
	return out, nil
}

func (s *CategoryService) checkUniqueName(ctx context.Context, name string, self int64) error {
	existing, err := s.repo.CategoryByName(ctx, name)
	switch {
	case isNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("check category name: %w", err)
	case existing.ID == self:
		return nil
	}
	return core.NewValidationError("name", "Category with the name '%s' already exists", name)
}
