package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"fooddiary/internal/cache"
	"fooddiary/internal/core"
	"fooddiary/internal/storage"
)

// ProductDropdownLimit caps the number of autocomplete suggestions.
const ProductDropdownLimit = 20

// DropdownCache holds autocomplete results for categories and products.
// Any catalog write purges both, since product entries carry category names.
// A nil *DropdownCache disables caching.
type DropdownCache struct {
	categories *cache.LRUCache[[]core.Category]
	products   *cache.LRUCache[[]core.Product]
}

func NewDropdownCache(size int, ttl time.Duration) *DropdownCache {
	return &DropdownCache{
		categories: cache.NewLRUCache[[]core.Category](size, ttl),
		products:   cache.NewLRUCache[[]core.Product](size, ttl),
	}
}

// Register adds both caches to m's expiry cycle.
func (c *DropdownCache) Register(m *cache.Manager) {
	if c == nil {
		return
	}
	m.Register("category_dropdown", c.categories)
	m.Register("product_dropdown", c.products)
}

// Invalidate drops every cached dropdown.
func (c *DropdownCache) Invalidate() {
	if c == nil {
		return
	}
	c.categories.Purge()
	c.products.Purge()
}

func (c *DropdownCache) Stats() (categories, products cache.Stats) {
	if c == nil {
		return
	}
	return c.categories.Stats(), c.products.Stats()
}

func dropdownKey(filter string) string {
	return strings.ToLower(strings.TrimSpace(filter))
}

// uniqueIDs sorts ids and drops duplicates. It returns ErrInvalidIDs for an
// empty list or a non-positive id.
func uniqueIDs(ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, core.ErrInvalidIDs
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	out = slices.Compact(out)
	if out[0] <= 0 {
		return nil, core.ErrInvalidIDs
	}
	return out, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}

// requireExists turns a lookup failure for a referenced entity into a
// validation error on field, leaving other errors untouched.
func requireExists(err error, field, what string, id int64) error {
	if isNotFound(err) {
		return core.NewValidationError(field, "%s with id %d not found", what, id)
	}
	if err != nil {
		return fmt.Errorf("get %s %d: %w", strings.ToLower(what), id, err)
	}
	return nil
}

// Services bundles every service the HTTP layer and the CLI use.
type Services struct {
	repo *storage.SQLiteRepository

	Categories *CategoryService
	Products   *ProductService
	Pages      *PageService
	Notes      *NoteService
	Exports    *ExportService
	Imports    *ImportService
}

// New wires the services over repo. dropdown may be nil.
func New(repo *storage.SQLiteRepository, dropdown *DropdownCache, exports *ExportService) *Services {
	return &Services{
		repo:       repo,
		Categories: NewCategoryService(repo, dropdown),
		Products:   NewProductService(repo, dropdown),
		Pages:      NewPageService(repo, exports.Renderer()),
		Notes:      NewNoteService(repo),
		Exports:    exports,
		Imports:    NewImportService(repo, dropdown),
	}
}

// Ping reports whether the store behind the services is reachable.
func (s *Services) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
