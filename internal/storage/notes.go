package storage

import (
	"context"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"

	"fooddiary/internal/core"
)

type noteRow struct {
	ID              int64  `db:"id"`
	PageID          int64  `db:"page_id"`
	ProductID       int64  `db:"product_id"`
	MealType        int    `db:"meal_type"`
	ProductQuantity int    `db:"product_quantity"`
	DisplayOrder    int    `db:"display_order"`
	ProductName     string `db:"product_name"`
	CaloriesCost    int    `db:"calories_cost"`
	DefaultQuantity int    `db:"default_quantity"`
	CategoryID      int64  `db:"category_id"`
	CategoryName    string `db:"category_name"`
}

const noteColumns = `n.id, n.page_id, n.product_id, n.meal_type, n.product_quantity, n.display_order,
	p.name AS product_name, p.calories_cost, p.default_quantity, p.category_id, c.name AS category_name`

const noteFrom = ` FROM notes n
	JOIN products p ON p.id = n.product_id
	JOIN categories c ON c.id = p.category_id`

func (r noteRow) toCore() core.Note {
	return core.Note{
		ID:              r.ID,
		PageID:          r.PageID,
		MealType:        core.MealType(r.MealType),
		ProductID:       r.ProductID,
		ProductQuantity: r.ProductQuantity,
		DisplayOrder:    r.DisplayOrder,
		Product: &core.Product{
			ID:              r.ProductID,
			Name:            r.ProductName,
			CaloriesCost:    r.CaloriesCost,
			DefaultQuantity: r.DefaultQuantity,
			CategoryID:      r.CategoryID,
			Category:        &core.Category{ID: r.CategoryID, Name: r.CategoryName},
		},
	}
}

func notesToCore(rows []noteRow) []core.Note {
	out := make([]core.Note, len(rows))
	for i, r := range rows {
		out[i] = r.toCore()
	}
	return out
}

// NotesByPage returns the notes of a page ordered by meal type and display order.
func (q *Queries) NotesByPage(ctx context.Context, pageID int64) ([]core.Note, error) {
	var rows []noteRow
	err := sqlx.SelectContext(ctx, q.db, &rows, `SELECT `+noteColumns+noteFrom+`
		WHERE n.page_id = ?
		ORDER BY n.meal_type, n.display_order, n.id`, pageID)
	if err != nil {
		return nil, fmt.Errorf("notes of page %d: %w", pageID, err)
	}
	return notesToCore(rows), nil
}

func (q *Queries) GetNote(ctx context.Context, id int64) (core.Note, error) {
	var row noteRow
	if err := sqlx.GetContext(ctx, q.db, &row, `SELECT `+noteColumns+noteFrom+` WHERE n.id = ?`, id); err != nil {
		return core.Note{}, notFound(err, "note", id)
	}
	return row.toCore(), nil
}

// GetNotes returns the notes among ids that exist.
func (q *Queries) GetNotes(ctx context.Context, ids []int64) ([]core.Note, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := q.inIDs(`SELECT `+noteColumns+noteFrom+` WHERE n.id IN (?) ORDER BY n.id`, ids)
	if err != nil {
		return nil, err
	}
	var rows []noteRow
	if err := sqlx.SelectContext(ctx, q.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get notes: %w", err)
	}
	return notesToCore(rows), nil
}

// InsertNote stores n as given, display order included.
func (q *Queries) InsertNote(ctx context.Context, n core.Note) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO notes (page_id, product_id, meal_type, product_quantity, display_order) VALUES (?, ?, ?, ?, ?)`,
		n.PageID, n.ProductID, int(n.MealType), n.ProductQuantity, n.DisplayOrder)
	if err != nil {
		return 0, fmt.Errorf("insert note: %w", err)
	}
	return res.LastInsertId()
}

// DeleteNotesOfPage removes every note on the page.
func (q *Queries) DeleteNotesOfPage(ctx context.Context, pageID int64) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM notes WHERE page_id = ?`, pageID); err != nil {
		return fmt.Errorf("delete notes of page %d: %w", pageID, err)
	}
	return nil
}

// nextDisplayOrder returns the display order that appends to a meal group.
func (q *Queries) nextDisplayOrder(ctx context.Context, pageID int64, meal core.MealType) (int, error) {
	var next int
	err := sqlx.GetContext(ctx, q.db, &next,
		`SELECT COALESCE(MAX(display_order) + 1, 0) FROM notes WHERE page_id = ? AND meal_type = ?`,
		pageID, int(meal))
	if err != nil {
		return 0, fmt.Errorf("next display order: %w", err)
	}
	return next, nil
}

// groupNoteIDs returns the ids of a meal group in display order.
func (q *Queries) groupNoteIDs(ctx context.Context, pageID int64, meal core.MealType) ([]int64, error) {
	var ids []int64
	err := sqlx.SelectContext(ctx, q.db, &ids,
		`SELECT id FROM notes WHERE page_id = ? AND meal_type = ? ORDER BY display_order, id`,
		pageID, int(meal))
	if err != nil {
		return nil, fmt.Errorf("meal group ids: %w", err)
	}
	return ids, nil
}

// writeGroupOrder assigns display orders 0..len(ids)-1 and the meal type to ids.
func (q *Queries) writeGroupOrder(ctx context.Context, meal core.MealType, ids []int64) error {
	for i, id := range ids {
		if _, err := q.db.ExecContext(ctx,
			`UPDATE notes SET display_order = ?, meal_type = ? WHERE id = ?`, i, int(meal), id); err != nil {
			return fmt.Errorf("reorder note %d: %w", id, err)
		}
	}
	return nil
}

// compactGroup renumbers a meal group densely from zero.
func (q *Queries) compactGroup(ctx context.Context, pageID int64, meal core.MealType) error {
	ids, err := q.groupNoteIDs(ctx, pageID, meal)
	if err != nil {
		return err
	}
	return q.writeGroupOrder(ctx, meal, ids)
}

// CreateNote appends a note to the end of its meal group.
func (r *SQLiteRepository) CreateNote(ctx context.Context, in core.NoteInput) (int64, error) {
	var id int64
	err := r.WithTx(ctx, func(q *Queries) error {
		order, err := q.nextDisplayOrder(ctx, in.PageID, in.MealType)
		if err != nil {
			return err
		}
		id, err = q.InsertNote(ctx, core.Note{
			PageID:          in.PageID,
			MealType:        in.MealType,
			ProductID:       in.ProductID,
			ProductQuantity: in.ProductQuantity,
			DisplayOrder:    order,
		})
		return err
	})
	return id, err
}

// UpdateNote rewrites a note. A note changing page or meal type moves to the
// end of its new group and its old group is compacted.
func (r *SQLiteRepository) UpdateNote(ctx context.Context, id int64, in core.NoteInput) error {
	return r.WithTx(ctx, func(q *Queries) error {
		old, err := q.GetNote(ctx, id)
		if err != nil {
			return err
		}
		order := old.DisplayOrder
		regrouped := old.PageID != in.PageID || old.MealType != in.MealType
		if regrouped {
			if order, err = q.nextDisplayOrder(ctx, in.PageID, in.MealType); err != nil {
				return err
			}
		}
		res, err := q.db.ExecContext(ctx,
			`UPDATE notes SET page_id = ?, product_id = ?, meal_type = ?, product_quantity = ?, display_order = ? WHERE id = ?`,
			in.PageID, in.ProductID, int(in.MealType), in.ProductQuantity, order, id)
		if err != nil {
			return fmt.Errorf("update note: %w", err)
		}
		if err := requireAffected(res, "note", id); err != nil {
			return err
		}
		if regrouped {
			return q.compactGroup(ctx, old.PageID, old.MealType)
		}
		return nil
	})
}

type groupKey struct {
	pageID int64
	meal   core.MealType
}

// DeleteNotes removes the notes and compacts every group they belonged to.
func (r *SQLiteRepository) DeleteNotes(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.WithTx(ctx, func(q *Queries) error {
		notes, err := q.GetNotes(ctx, ids)
		if err != nil {
			return err
		}
		query, args, err := q.inIDs(`DELETE FROM notes WHERE id IN (?)`, ids)
		if err != nil {
			return err
		}
		res, err := q.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("delete notes: %w", err)
		}
		if deleted, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}

		var groups []groupKey
		for _, n := range notes {
			k := groupKey{n.PageID, n.MealType}
			if !slices.Contains(groups, k) {
				groups = append(groups, k)
			}
		}
		for _, g := range groups {
			if err := q.compactGroup(ctx, g.pageID, g.meal); err != nil {
				return err
			}
		}
		return nil
	})
	return deleted, err
}

// MoveNote places a note at position inside the target meal group of its
// page. Returns core.ErrInvalidMove when position is past the end of the group.
func (r *SQLiteRepository) MoveNote(ctx context.Context, move core.NoteMove) error {
	return r.WithTx(ctx, func(q *Queries) error {
		n, err := q.GetNote(ctx, move.NoteID)
		if err != nil {
			return err
		}
		target, err := q.groupNoteIDs(ctx, n.PageID, move.MealType)
		if err != nil {
			return err
		}
		target = slices.DeleteFunc(target, func(id int64) bool { return id == n.ID })
		if move.Position < 0 || move.Position > len(target) {
			return fmt.Errorf("move note %d to %s position %d: %w", n.ID, move.MealType, move.Position, core.ErrInvalidMove)
		}
		target = slices.Insert(target, move.Position, n.ID)
		if err := q.writeGroupOrder(ctx, move.MealType, target); err != nil {
			return err
		}
		if n.MealType != move.MealType {
			return q.compactGroup(ctx, n.PageID, n.MealType)
		}
		return nil
	})
}

// ValidateMove reports whether move is possible without applying it.
func (q *Queries) ValidateMove(ctx context.Context, move core.NoteMove) error {
	n, err := q.GetNote(ctx, move.NoteID)
	if err != nil {
		return err
	}
	target, err := q.groupNoteIDs(ctx, n.PageID, move.MealType)
	if err != nil {
		return err
	}
	size := len(target)
	if n.MealType == move.MealType {
		size--
	}
	if move.Position < 0 || move.Position > size {
		return fmt.Errorf("move note %d to %s position %d: %w", n.ID, move.MealType, move.Position, core.ErrInvalidMove)
	}
	return nil
}
