package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"fooddiary/internal/core"
)

type productRow struct {
	ID              int64  `db:"id"`
	Name            string `db:"name"`
	CaloriesCost    int    `db:"calories_cost"`
	DefaultQuantity int    `db:"default_quantity"`
	CategoryID      int64  `db:"category_id"`
	CategoryName    string `db:"category_name"`
}

func (r productRow) toCore() core.Product {
	return core.Product{
		ID:              r.ID,
		Name:            r.Name,
		CaloriesCost:    r.CaloriesCost,
		DefaultQuantity: r.DefaultQuantity,
		CategoryID:      r.CategoryID,
		Category:        &core.Category{ID: r.CategoryID, Name: r.CategoryName},
	}
}

const productColumns = `p.id, p.name, p.calories_cost, p.default_quantity, p.category_id, c.name AS category_name`

func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(s))
	return "%" + s + "%"
}

func productsWhere(f core.ProductFilter) (string, []any) {
	var conds []string
	var args []any
	if f.CategoryID > 0 {
		conds = append(conds, "p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		conds = append(conds, `p.name LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(name))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SearchProducts returns one page of products ordered by name plus the total match count.
func (q *Queries) SearchProducts(ctx context.Context, f core.ProductFilter) ([]core.Product, int, error) {
	where, args := productsWhere(f)

	var total int
	if err := sqlx.GetContext(ctx, q.db, &total, `SELECT COUNT(*) FROM products p`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	var rows []productRow
	query := `SELECT ` + productColumns + ` FROM products p JOIN categories c ON c.id = p.category_id` +
		where + ` ORDER BY p.name LIMIT ? OFFSET ?`
	pageArgs := append(args, f.Paging.PageSize, f.Paging.Offset())
	if err := sqlx.SelectContext(ctx, q.db, &rows, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("search products: %w", err)
	}
	return productsToCore(rows), total, nil
}

func productsToCore(rows []productRow) []core.Product {
	out := make([]core.Product, len(rows))
	for i, r := range rows {
		out[i] = r.toCore()
	}
	return out
}

func (q *Queries) GetProduct(ctx context.Context, id int64) (core.Product, error) {
	var row productRow
	err := sqlx.GetContext(ctx, q.db, &row,
		`SELECT `+productColumns+` FROM products p JOIN categories c ON c.id = p.category_id WHERE p.id = ?`, id)
	if err != nil {
		return core.Product{}, notFound(err, "product", id)
	}
	return row.toCore(), nil
}

// GetProducts returns the products among ids that exist.
func (q *Queries) GetProducts(ctx context.Context, ids []int64) ([]core.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := q.inIDs(
		`SELECT `+productColumns+` FROM products p JOIN categories c ON c.id = p.category_id WHERE p.id IN (?) ORDER BY p.id`, ids)
	if err != nil {
		return nil, err
	}
	var rows []productRow
	if err := sqlx.SelectContext(ctx, q.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	return productsToCore(rows), nil
}

// ProductByName looks a product up ignoring ASCII case.
func (q *Queries) ProductByName(ctx context.Context, name string) (core.Product, error) {
	var row productRow
	err := sqlx.GetContext(ctx, q.db, &row,
		`SELECT `+productColumns+` FROM products p JOIN categories c ON c.id = p.category_id WHERE p.name = ?`, name)
	if err != nil {
		return core.Product{}, notFound(err, "product", name)
	}
	return row.toCore(), nil
}

func (q *Queries) CreateProduct(ctx context.Context, in core.ProductInput) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO products (name, calories_cost, default_quantity, category_id) VALUES (?, ?, ?, ?)`,
		in.Name, in.CaloriesCost, in.DefaultQuantity, in.CategoryID)
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) UpdateProduct(ctx context.Context, id int64, in core.ProductInput) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE products SET name = ?, calories_cost = ?, default_quantity = ?, category_id = ? WHERE id = ?`,
		in.Name, in.CaloriesCost, in.DefaultQuantity, in.CategoryID, id)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return requireAffected(res, "product", id)
}

// DeleteProducts removes the products and every note referencing them.
func (q *Queries) DeleteProducts(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := q.inIDs(`DELETE FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete products: %w", err)
	}
	return res.RowsAffected()
}

// ProductDropdown returns products whose name contains filter, at most limit of them.
func (q *Queries) ProductDropdown(ctx context.Context, filter string, limit int) ([]core.Product, error) {
	var rows []productRow
	err := sqlx.SelectContext(ctx, q.db, &rows,
		`SELECT `+productColumns+` FROM products p JOIN categories c ON c.id = p.category_id
		 WHERE p.name LIKE ? ESCAPE '\' ORDER BY p.name LIMIT ?`,
		likePattern(filter), limit)
	if err != nil {
		return nil, fmt.Errorf("product dropdown: %w", err)
	}
	return productsToCore(rows), nil
}

// ListProducts returns every product with its category, ordered by name.
func (q *Queries) ListProducts(ctx context.Context) ([]core.Product, error) {
	var rows []productRow
	err := sqlx.SelectContext(ctx, q.db, &rows,
		`SELECT `+productColumns+` FROM products p JOIN categories c ON c.id = p.category_id ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return productsToCore(rows), nil
}
