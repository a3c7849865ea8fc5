package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"fooddiary/internal/notestable"
)

var xlsxColumnWidths = [notestable.ColumnCount]float64{
	notestable.MealNameColumn:      14,
	notestable.ProductColumn:       36,
	notestable.QuantityColumn:      12,
	notestable.CaloriesColumn:      12,
	notestable.TotalCaloriesColumn: 16,
}

type xlsxStyles struct {
	heading    int
	header     int
	plain      int
	bold       int
	italic     int
	boldItalic int
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error

	if s.heading, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 13},
	}); err != nil {
		return s, fmt.Errorf("create heading style: %w", err)
	}

	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	}); err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}

	cell := func(bold, italic bool) (int, error) {
		return f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: bold, Italic: italic, Size: 10},
			Alignment: &excelize.Alignment{Vertical: "center"},
			Border:    thinBorders(),
		})
	}
	if s.plain, err = cell(false, false); err != nil {
		return s, fmt.Errorf("create cell style: %w", err)
	}
	if s.bold, err = cell(true, false); err != nil {
		return s, fmt.Errorf("create bold style: %w", err)
	}
	if s.italic, err = cell(false, true); err != nil {
		return s, fmt.Errorf("create italic style: %w", err)
	}
	if s.boldItalic, err = cell(true, true); err != nil {
		return s, fmt.Errorf("create bold italic style: %w", err)
	}
	return s, nil
}

func (s xlsxStyles) forCell(c notestable.Cell) int {
	switch {
	case c.Bold && c.Italic:
		return s.boldItalic
	case c.Bold:
		return s.bold
	case c.Italic:
		return s.italic
	}
	return s.plain
}

func thinBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "#999999", Style: 1},
		{Type: "top", Color: "#999999", Style: 1},
		{Type: "right", Color: "#999999", Style: 1},
		{Type: "bottom", Color: "#999999", Style: 1},
	}
}

// sheetGrid is a notestable.Grid over one worksheet. Grid row i is sheet row
// i+1; merged cells become excelize merge ranges.
type sheetGrid struct {
	f      *excelize.File
	sheet  string
	rows   int
	styles xlsxStyles
}

func (g *sheetGrid) RowCount() int {
	return g.rows
}

func (g *sheetGrid) AppendRow() error {
	g.rows++
	first, err := excelize.CoordinatesToCellName(1, g.rows)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(notestable.ColumnCount, g.rows)
	if err != nil {
		return err
	}
	return g.f.SetCellStyle(g.sheet, first, last, g.styles.plain)
}

func (g *sheetGrid) SetCell(row, col int, c notestable.Cell) error {
	if row < 0 || row >= g.rows || col < 0 || col >= notestable.ColumnCount {
		return fmt.Errorf("set cell (%d, %d): %w", row, col, notestable.ErrOutOfRange)
	}
	name, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return err
	}
	var value any = c.Text
	if n, convErr := strconv.Atoi(c.Text); convErr == nil {
		value = n
	}
	if err := g.f.SetCellValue(g.sheet, name, value); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}

	end := name
	if c.MergeDown > 0 {
		if end, err = excelize.CoordinatesToCellName(col+1, row+1+c.MergeDown); err != nil {
			return err
		}
		if err := g.f.MergeCell(g.sheet, name, end); err != nil {
			return fmt.Errorf("merge %s:%s: %w", name, end, err)
		}
	}
	return g.f.SetCellStyle(g.sheet, name, end, g.styles.forCell(c))
}

// GenerateXLSX writes one worksheet per diary page and returns the workbook bytes.
func GenerateXLSX(doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newXLSXStyles(f)
	if err != nil {
		return nil, err
	}

	defaultSheet := f.GetSheetName(0)
	if len(doc.Pages) == 0 {
		name := sheetName(doc.Title)
		if err := f.SetSheetName(defaultSheet, name); err != nil {
			return nil, fmt.Errorf("set sheet name: %w", err)
		}
		if err := f.SetCellValue(name, "A1", "No diary pages from "+doc.Range.Start.String()+" to "+doc.Range.End.String()); err != nil {
			return nil, err
		}
	}

	for i, p := range doc.Pages {
		name := p.Date.String()
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("set sheet name: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", name, err)
		}
		if err := writeXLSXPage(f, name, styles, doc.Header, p); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeXLSXPage(f *excelize.File, sheet string, styles xlsxStyles, header [notestable.ColumnCount]string, p PageTable) error {
	for i, w := range xlsxColumnWidths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, w); err != nil {
			return fmt.Errorf("set col width %s: %w", name, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(notestable.ColumnCount)
	if err != nil {
		return err
	}

	// Row 1: heading across the table.
	if err := f.SetCellValue(sheet, "A1", p.Heading()); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return fmt.Errorf("merge heading: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", styles.heading); err != nil {
		return err
	}

	// Row 2: column titles.
	for i, title := range header {
		name, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheet, name, title); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A2", lastCol+"2", styles.header); err != nil {
		return err
	}

	grid := &sheetGrid{f: f, sheet: sheet, rows: 2, styles: styles}
	if err := notestable.Apply(grid, p.Layout); err != nil {
		return fmt.Errorf("write notes: %w", err)
	}

	total := grid.rows + 1
	label, _ := excelize.CoordinatesToCellName(notestable.CaloriesColumn+1, total)
	value, _ := excelize.CoordinatesToCellName(notestable.TotalCaloriesColumn+1, total)
	if err := f.SetCellValue(sheet, label, "Day total"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, value, p.TotalCalories); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, label, value, styles.bold)
}

// sheetName trims s to the 31 characters a worksheet name may hold.
func sheetName(s string) string {
	r := []rune(s)
	if len(r) > 31 {
		r = r[:31]
	}
	if len(r) == 0 {
		return "Food diary"
	}
	return string(r)
}
