package notestable

import (
	"errors"
	"fmt"

	"fooddiary/internal/core"
)

// Cell is one table cell. MergeDown is the number of extra rows the cell
// spans below its own row.
type Cell struct {
	Text      string
	Bold      bool
	Italic    bool
	MergeDown int
}

// IsZero reports whether the cell carries nothing to paint.
func (c Cell) IsZero() bool {
	return c == Cell{}
}

type Row struct {
	Cells [ColumnCount]Cell
}

// Group describes one meal group of a Layout. FirstRow is relative to the
// start of the Layout.
type Group struct {
	MealType core.MealType
	Name     string
	FirstRow int
	Count    int
	Calories int
}

// LastRow is the index of the group's last row.
func (g Group) LastRow() int {
	return g.FirstRow + g.Count - 1
}

// Layout is the result of rendering one set of notes.
type Layout struct {
	Rows   []Row
	Groups []Group
}

// Empty reports whether the layout has no rows.
func (l Layout) Empty() bool {
	return len(l.Rows) == 0
}

// TotalCalories sums the group totals.
func (l Layout) TotalCalories() int {
	total := 0
	for _, g := range l.Groups {
		total += g.Calories
	}
	return total
}

// Covered reports whether the cell at (row, col) lies under a merged cell
// started on an earlier row.
func (l Layout) Covered(row, col int) bool {
	for r := row - 1; r >= 0; r-- {
		if span := l.Rows[r].Cells[col].MergeDown; span > 0 {
			return r+span >= row
		}
	}
	return false
}

// Grid is the sink a Layout is applied to. Rows are only appended; cells are
// addressed by absolute row index.
type Grid interface {
	RowCount() int
	AppendRow() error
	SetCell(row, col int, cell Cell) error
}

// Apply appends the rows of layout to grid, starting at the grid's current
// row count. Cells hidden under a merge and empty cells are not written.
// Errors from the grid are returned as-is.
func Apply(grid Grid, layout Layout) error {
	base := grid.RowCount()
	for i, row := range layout.Rows {
		if err := grid.AppendRow(); err != nil {
			return err
		}
		for col, cell := range row.Cells {
			if cell.IsZero() || layout.Covered(i, col) {
				continue
			}
			if err := grid.SetCell(base+i, col, cell); err != nil {
				return err
			}
		}
	}
	return nil
}

var ErrOutOfRange = errors.New("cell out of range")

// Table is an in-memory Grid.
type Table struct {
	rows []Row
}

func (t *Table) RowCount() int {
	return len(t.rows)
}

func (t *Table) AppendRow() error {
	t.rows = append(t.rows, Row{})
	return nil
}

func (t *Table) SetCell(row, col int, cell Cell) error {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= ColumnCount {
		return fmt.Errorf("set cell (%d, %d): %w", row, col, ErrOutOfRange)
	}
	t.rows[row].Cells[col] = cell
	return nil
}

// Cell returns the cell at (row, col), or the zero cell when out of range.
func (t *Table) Cell(row, col int) Cell {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= ColumnCount {
		return Cell{}
	}
	return t.rows[row].Cells[col]
}

// Rows returns a copy of the table rows.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}
