package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"fooddiary/internal/core"
)

type categoryRow struct {
	ID            int64  `db:"id"`
	Name          string `db:"name"`
	CountProducts int    `db:"count_products"`
}

func (r categoryRow) toCore() core.Category {
	return core.Category{ID: r.ID, Name: r.Name}
}

// ListCategories returns every category with its product count, ordered by name.
func (q *Queries) ListCategories(ctx context.Context) ([]core.CategorySummary, error) {
	var rows []categoryRow
	err := sqlx.SelectContext(ctx, q.db, &rows, `
		SELECT c.id, c.name, COUNT(p.id) AS count_products
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.CategorySummary, len(rows))
	for i, r := range rows {
		out[i] = core.CategorySummary{Category: r.toCore(), CountProducts: r.CountProducts}
	}
	return out, nil
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var row categoryRow
	if err := sqlx.GetContext(ctx, q.db, &row, `SELECT id, name FROM categories WHERE id = ?`, id); err != nil {
		return core.Category{}, notFound(err, "category", id)
	}
	return row.toCore(), nil
}

// CategoryByName looks a category up ignoring ASCII case.
func (q *Queries) CategoryByName(ctx context.Context, name string) (core.Category, error) {
	var row categoryRow
	if err := sqlx.GetContext(ctx, q.db, &row, `SELECT id, name FROM categories WHERE name = ?`, name); err != nil {
		return core.Category{}, notFound(err, "category", name)
	}
	return row.toCore(), nil
}

func (q *Queries) CreateCategory(ctx context.Context, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) UpdateCategory(ctx context.Context, id int64, name string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireAffected(res, "category", id)
}

// DeleteCategory removes the category together with its products and their notes.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireAffected(res, "category", id)
}

// CategoryDropdown returns categories whose name contains filter.
func (q *Queries) CategoryDropdown(ctx context.Context, filter string) ([]core.Category, error) {
	var rows []categoryRow
	err := sqlx.SelectContext(ctx, q.db, &rows,
		`SELECT id, name FROM categories WHERE name LIKE ? ESCAPE '\' ORDER BY name`,
		likePattern(filter))
	if err != nil {
		return nil, fmt.Errorf("category dropdown: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, r := range rows {
		out[i] = r.toCore()
	}
	return out, nil
}
