package services

import (
	"context"
	"fmt"
	"log/slog"

	"fooddiary/internal/core"
	"fooddiary/internal/storage"
)

// ProductService manages the product catalog.
type ProductService struct {
	repo     *storage.SQLiteRepository
	dropdown *DropdownCache
}

func NewProductService(repo *storage.SQLiteRepository, dropdown *DropdownCache) *ProductService {
	return &ProductService{repo: repo, dropdown: dropdown}
}

// Search returns one page of products and the total number of matches.
// Filtering by a category that does not exist is reported as not found.
func (s *ProductService) Search(ctx context.Context, f core.ProductFilter) ([]core.Product, int, error) {
	if err := f.Paging.Validate(); err != nil {
		return nil, 0, err
	}
	if f.CategoryID != 0 {
		if _, err := s.repo.GetCategory(ctx, f.CategoryID); err != nil {
			return nil, 0, err
		}
	}
	return s.repo.SearchProducts(ctx, f)
}

func (s *ProductService) Get(ctx context.Context, id int64) (core.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, in core.ProductInput) (int64, error) {
	in = in.Normalize()
	if err := s.check(ctx, in, 0); err != nil {
		return 0, err
	}

	id, err := s.repo.CreateProduct(ctx, in)
	if err != nil {
		return 0, err
	}
	s.dropdown.Invalidate()
	slog.InfoContext(ctx, "Product created", "product_id", id, "name", in.Name)
	return id, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, in core.ProductInput) error {
	in = in.Normalize()
	if _, err := s.repo.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := s.check(ctx, in, id); err != nil {
		return err
	}

	if err := s.repo.UpdateProduct(ctx, id, in); err != nil {
		return err
	}
	s.dropdown.Invalidate()
	return nil
}

// Delete removes a product and every note that references it.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetProduct(ctx, id); err != nil {
		return err
	}
	if _, err := s.repo.DeleteProducts(ctx, []int64{id}); err != nil {
		return err
	}
	s.dropdown.Invalidate()
	slog.InfoContext(ctx, "Product deleted", "product_id", id)
	return nil
}

// DeleteBatch removes every listed product. Nothing is deleted unless all
// of them exist.
func (s *ProductService) DeleteBatch(ctx context.Context, ids []int64) error {
	ids, err := uniqueIDs(ids)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(q *storage.Queries) error {
		found, err := q.GetProducts(ctx, ids)
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			return core.ErrInvalidIDs
		}
		_, err = q.DeleteProducts(ctx, ids)
		return err
	})
	if err != nil {
		return err
	}
	s.dropdown.Invalidate()
	slog.InfoContext(ctx, "Products deleted", "count", len(ids))
	return nil
}

// Dropdown returns up to ProductDropdownLimit products whose name contains filter.
func (s *ProductService) Dropdown(ctx context.Context, filter string) ([]core.Product, error) {
	key := dropdownKey(filter)
	if s.dropdown != nil {
		if cached, ok := s.dropdown.products.Get(key); ok {
			return cached, nil
		}
	}
	out, err := s.repo.ProductDropdown(ctx, key, ProductDropdownLimit)
	if err != nil {
		return nil, err
	}
	if s.dropdown != nil {
		s.dropdown.products.Set(key, out)
	}
	return out, nil
}

func (s *ProductService) check(ctx context.Context, in core.ProductInput, self int64) error {
	if err := in.Validate(); err != nil {
		return err
	}
	_, err := s.repo.GetCategory(ctx, in.CategoryID)
	if err := requireExists(err, "categoryId", "Category", in.CategoryID); err != nil {
		return err
	}

	existing, err := s.repo.ProductByName(ctx, in.Name)
	switch {
	case isNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("check product name: %w", err)
	case existing.ID == self:
		return nil
	}
	return core.NewValidationError("name", "Product with the name '%s' already exists", in.Name)
}
