// Package notestable lays out the notes of a diary day as a table grouped by
// meal. Each meal group gets its name and its calorie total in cells that
// span every row of the group.
//
// Render is pure: it returns a Layout describing rows and merge spans. Apply
// copies a Layout onto a concrete Grid (PDF, spreadsheet, in-memory).
package notestable

import (
	"cmp"
	"math"
	"slices"
	"strconv"

	"fooddiary/internal/core"
)

// Column positions of the notes table.
const (
	MealNameColumn = iota
	ProductColumn
	QuantityColumn
	CaloriesColumn
	TotalCaloriesColumn

	ColumnCount
)

// Header holds the default column titles, indexed by column.
var Header = [ColumnCount]string{
	MealNameColumn:      "Meal",
	ProductColumn:       "Product",
	QuantityColumn:      "Quantity, g",
	CaloriesColumn:      "Calories",
	TotalCaloriesColumn: "Total calories",
}

type (
	// RowWriter produces the cells of the single row describing one note.
	RowWriter interface {
		NoteRow(note core.Note) []Cell
	}

	MealNameResolver interface {
		MealName(mealType core.MealType) string
	}

	CaloriesCalculator interface {
		ForQuantity(caloriesCost, quantity int) float64
	}
)

// Renderer groups notes by meal. It holds no per-call state and may be shared.
type Renderer struct {
	rows  RowWriter
	names MealNameResolver
	calc  CaloriesCalculator
}

// NewRenderer wires the collaborators. Nil arguments select the defaults.
func NewRenderer(rows RowWriter, names MealNameResolver, calc CaloriesCalculator) *Renderer {
	if calc == nil {
		calc = DefaultCalculator{}
	}
	if rows == nil {
		rows = NoteRowWriter{Calc: calc}
	}
	if names == nil {
		names = DefaultMealNames{}
	}
	return &Renderer{rows: rows, names: names, calc: calc}
}

// Render lays out notes. Groups follow meal type rank; inside a group notes
// follow DisplayOrder, then ID. Notes equal on both keep their input order.
func (r *Renderer) Render(notes []core.Note) Layout {
	if len(notes) == 0 {
		return Layout{}
	}

	byMeal := make(map[core.MealType][]core.Note)
	for _, n := range notes {
		byMeal[n.MealType] = append(byMeal[n.MealType], n)
	}
	meals := make([]core.MealType, 0, len(byMeal))
	for m := range byMeal {
		meals = append(meals, m)
	}
	slices.SortFunc(meals, core.CompareMealTypes)

	layout := Layout{
		Rows:   make([]Row, 0, len(notes)),
		Groups: make([]Group, 0, len(meals)),
	}
	for _, meal := range meals {
		group := byMeal[meal]
		slices.SortStableFunc(group, compareNotes)

		start := len(layout.Rows)
		var calories float64
		for _, n := range group {
			layout.Rows = append(layout.Rows, newRow(r.rows.NoteRow(n)))
			if n.Product != nil {
				calories += r.calc.ForQuantity(n.Product.CaloriesCost, n.ProductQuantity)
			}
		}

		g := Group{
			MealType: meal,
			Name:     r.names.MealName(meal),
			FirstRow: start,
			Count:    len(group),
			Calories: int(math.Floor(calories)),
		}
		span := g.Count - 1
		first := &layout.Rows[start]
		first.Cells[MealNameColumn] = Cell{Text: g.Name, MergeDown: span}
		first.Cells[TotalCaloriesColumn] = Cell{
			Text:      strconv.Itoa(g.Calories),
			Bold:      true,
			Italic:    true,
			MergeDown: span,
		}
		layout.Groups = append(layout.Groups, g)
	}
	return layout
}

// WriteTo renders notes and appends the result to grid.
func (r *Renderer) WriteTo(grid Grid, notes []core.Note) error {
	return Apply(grid, r.Render(notes))
}

func compareNotes(a, b core.Note) int {
	if c := cmp.Compare(a.DisplayOrder, b.DisplayOrder); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func newRow(cells []Cell) Row {
	var row Row
	copy(row.Cells[:], cells)
	return row
}
