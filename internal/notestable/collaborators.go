package notestable

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"fooddiary/internal/core"
)

// DefaultCalculator uses core.CaloriesForQuantity.
type DefaultCalculator struct{}

func (DefaultCalculator) ForQuantity(caloriesCost, quantity int) float64 {
	return core.CaloriesForQuantity(caloriesCost, quantity)
}

// DefaultMealNames resolves names from core.MealType.String.
type DefaultMealNames struct{}

func (DefaultMealNames) MealName(m core.MealType) string {
	return m.String()
}

// MealNames resolves names from a map, falling back to the default name.
type MealNames map[core.MealType]string

func (n MealNames) MealName(m core.MealType) string {
	if name, ok := n[m]; ok {
		return name
	}
	return m.String()
}

// MissingProductName is shown for notes whose product is not loaded.
const MissingProductName = "Unknown product"

// NoteRowWriter fills the product, quantity and calories columns.
type NoteRowWriter struct {
	Calc CaloriesCalculator
}

func (w NoteRowWriter) NoteRow(n core.Note) []Cell {
	calc := w.Calc
	if calc == nil {
		calc = DefaultCalculator{}
	}
	row := make([]Cell, ColumnCount)
	row[QuantityColumn] = Cell{Text: strconv.Itoa(n.ProductQuantity)}
	if n.Product == nil {
		row[ProductColumn] = Cell{Text: MissingProductName, Italic: true}
		row[CaloriesColumn] = Cell{Text: "0"}
		return row
	}
	row[ProductColumn] = Cell{Text: n.Product.Name}
	calories := math.Floor(calc.ForQuantity(n.Product.CaloriesCost, n.ProductQuantity))
	row[CaloriesColumn] = Cell{Text: strconv.Itoa(int(calories))}
	return row
}

// WriteText prints layout as an aligned plain-text table. Cells under a merge
// are left blank.
func WriteText(w io.Writer, layout Layout) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(Header[:], "\t")); err != nil {
		return err
	}
	for i, row := range layout.Rows {
		texts := make([]string, ColumnCount)
		for col, cell := range row.Cells {
			if layout.Covered(i, col) {
				continue
			}
			texts[col] = cell.Text
		}
		if _, err := fmt.Fprintln(tw, strings.Join(texts, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
