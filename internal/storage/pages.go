package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"fooddiary/internal/core"
)

type pageRow struct {
	ID   int64  `db:"id"`
	Date string `db:"date"`
}

func (r pageRow) toCore() (core.Page, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Page{}, fmt.Errorf("page %d: %w", r.ID, err)
	}
	return core.Page{ID: r.ID, Date: d}, nil
}

type pageSummaryRow struct {
	ID           int64  `db:"id"`
	Date         string `db:"date"`
	CountNotes   int    `db:"count_notes"`
	CaloriesX100 int64  `db:"calories_x100"`
}

// Calories are summed as cost*quantity and divided once, which floors the
// exact sum of per-note calories.
const pageCaloriesColumns = `COUNT(n.id) AS count_notes,
	COALESCE(SUM(n.product_quantity * pr.calories_cost), 0) AS calories_x100`

func pagesWhere(f core.PageFilter) (string, []any) {
	var conds []string
	var args []any
	if !f.Start.IsZero() {
		conds = append(conds, "p.date >= ?")
		args = append(args, f.Start.String())
	}
	if !f.End.IsZero() {
		conds = append(conds, "p.date <= ?")
		args = append(args, f.End.String())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// SearchPages returns one page of diary pages with note counts and calories.
func (q *Queries) SearchPages(ctx context.Context, f core.PageFilter) ([]core.PageSummary, int, error) {
	where, args := pagesWhere(f)

	var total int
	if err := sqlx.GetContext(ctx, q.db, &total, `SELECT COUNT(*) FROM pages p`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count pages: %w", err)
	}

	order := "ASC"
	if f.Sort == core.SortDescending {
		order = "DESC"
	}
	query := `SELECT p.id, p.date, ` + pageCaloriesColumns + `
		FROM pages p
		LEFT JOIN notes n ON n.page_id = p.id
		LEFT JOIN products pr ON pr.id = n.product_id` + where + `
		GROUP BY p.id, p.date
		ORDER BY p.date ` + order + `
		LIMIT ? OFFSET ?`

	var rows []pageSummaryRow
	if err := sqlx.SelectContext(ctx, q.db, &rows, query, append(args, f.Paging.PageSize, f.Paging.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("search pages: %w", err)
	}

	out := make([]core.PageSummary, 0, len(rows))
	for _, r := range rows {
		d, err := core.ParseDate(r.Date)
		if err != nil {
			return nil, 0, fmt.Errorf("page %d: %w", r.ID, err)
		}
		out = append(out, core.PageSummary{
			ID:            r.ID,
			Date:          d,
			CountNotes:    r.CountNotes,
			CountCalories: int(r.CaloriesX100 / 100),
		})
	}
	return out, total, nil
}

func (q *Queries) GetPage(ctx context.Context, id int64) (core.Page, error) {
	var row pageRow
	if err := sqlx.GetContext(ctx, q.db, &row, `SELECT id, date FROM pages WHERE id = ?`, id); err != nil {
		return core.Page{}, notFound(err, "page", id)
	}
	return row.toCore()
}

func (q *Queries) PageByDate(ctx context.Context, d core.Date) (core.Page, error) {
	var row pageRow
	if err := sqlx.GetContext(ctx, q.db, &row, `SELECT id, date FROM pages WHERE date = ?`, d.String()); err != nil {
		return core.Page{}, notFound(err, "page dated", d)
	}
	return row.toCore()
}

// GetPages returns the pages among ids that exist.
func (q *Queries) GetPages(ctx context.Context, ids []int64) ([]core.Page, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := q.inIDs(`SELECT id, date FROM pages WHERE id IN (?) ORDER BY date`, ids)
	if err != nil {
		return nil, err
	}
	var rows []pageRow
	if err := sqlx.SelectContext(ctx, q.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get pages: %w", err)
	}
	return pagesToCore(rows)
}

func pagesToCore(rows []pageRow) ([]core.Page, error) {
	out := make([]core.Page, 0, len(rows))
	for _, r := range rows {
		p, err := r.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// AdjacentPages returns the closest pages before and after d. Either may be nil.
func (q *Queries) AdjacentPages(ctx context.Context, d core.Date) (prev, next *core.Page, err error) {
	prev, err = q.adjacentPage(ctx, `SELECT id, date FROM pages WHERE date < ? ORDER BY date DESC LIMIT 1`, d)
	if err != nil {
		return nil, nil, err
	}
	next, err = q.adjacentPage(ctx, `SELECT id, date FROM pages WHERE date > ? ORDER BY date ASC LIMIT 1`, d)
	if err != nil {
		return nil, nil, err
	}
	return prev, next, nil
}

func (q *Queries) adjacentPage(ctx context.Context, query string, d core.Date) (*core.Page, error) {
	var row pageRow
	err := sqlx.GetContext(ctx, q.db, &row, query, d.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("adjacent page: %w", err)
	}
	p, err := row.toCore()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (q *Queries) CreatePage(ctx context.Context, d core.Date) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO pages (date) VALUES (?)`, d.String())
	if err != nil {
		return 0, fmt.Errorf("create page: %w", err)
	}
	return res.LastInsertId()
}

func (q *Queries) UpdatePage(ctx context.Context, id int64, d core.Date) error {
	res, err := q.db.ExecContext(ctx, `UPDATE pages SET date = ? WHERE id = ?`, d.String(), id)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return requireAffected(res, "page", id)
}

// DeletePages removes the pages and their notes.
func (q *Queries) DeletePages(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := q.inIDs(`DELETE FROM pages WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete pages: %w", err)
	}
	return res.RowsAffected()
}

// PagesWithNotes loads every page in r, ordered by date, with notes carrying
// their product and category.
func (q *Queries) PagesWithNotes(ctx context.Context, r core.DateRange) ([]core.Page, error) {
	var rows []pageRow
	err := sqlx.SelectContext(ctx, q.db, &rows,
		`SELECT id, date FROM pages WHERE date >= ? AND date <= ? ORDER BY date`,
		r.Start.String(), r.End.String())
	if err != nil {
		return nil, fmt.Errorf("pages in range: %w", err)
	}
	pages, err := pagesToCore(rows)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return pages, nil
	}

	var notes []noteRow
	err = sqlx.SelectContext(ctx, q.db, &notes, `SELECT `+noteColumns+`
		FROM notes n
		JOIN pages pg ON pg.id = n.page_id
		JOIN products p ON p.id = n.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE pg.date >= ? AND pg.date <= ?
		ORDER BY n.page_id, n.meal_type, n.display_order, n.id`,
		r.Start.String(), r.End.String())
	if err != nil {
		return nil, fmt.Errorf("notes in range: %w", err)
	}

	index := make(map[int64]int, len(pages))
	for i, p := range pages {
		index[p.ID] = i
	}
	for _, n := range notes {
		if i, ok := index[n.PageID]; ok {
			pages[i].Notes = append(pages[i].Notes, n.toCore())
		}
	}
	return pages, nil
}

// CaloriesHistory returns the calories of each page in r, ordered by date.
func (q *Queries) CaloriesHistory(ctx context.Context, r core.DateRange) ([]core.DailyCalories, error) {
	var rows []pageSummaryRow
	err := sqlx.SelectContext(ctx, q.db, &rows, `SELECT p.id, p.date, `+pageCaloriesColumns+`
		FROM pages p
		LEFT JOIN notes n ON n.page_id = p.id
		LEFT JOIN products pr ON pr.id = n.product_id
		WHERE p.date >= ? AND p.date <= ?
		GROUP BY p.id, p.date
		ORDER BY p.date`,
		r.Start.String(), r.End.String())
	if err != nil {
		return nil, fmt.Errorf("calories history: %w", err)
	}
	out := make([]core.DailyCalories, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", row.ID, err)
		}
		out = append(out, core.DailyCalories{Date: d, Calories: int(row.CaloriesX100 / 100)})
	}
	return out, nil
}
