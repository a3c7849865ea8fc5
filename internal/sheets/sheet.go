package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"fooddiary/internal/core"
	"fooddiary/internal/export"
	"fooddiary/internal/notestable"
)

// Span is a merged block anchored at (Row, Col), both zero-based, covering
// Rows rows.
type Span struct {
	Row, Col, Rows int
}

// Emphasis marks a cell as bold and/or italic.
type Emphasis struct {
	Row, Col     int
	Bold, Italic bool
}

// Sheet is a backend-neutral spreadsheet tab: a value matrix plus the
// merges and text styles to apply on top.
type Sheet struct {
	Title    string
	Values   [][]any
	Merges   []Span
	Emphasis []Emphasis
}

// Title returns the tab name used for an export of r.
func Title(r core.DateRange) string {
	return fmt.Sprintf("Diary %s to %s", r.Start, r.End)
}

// BuildSheet lays every page of doc out one under the other: a date heading,
// the column header, the notes table and the day total, then a blank row.
func BuildSheet(doc export.Document) (Sheet, error) {
	s := &Sheet{Title: Title(doc.Range)}

	s.appendRow(doc.Title)
	s.emphasize(0, 0, true, false)

	for _, p := range doc.Pages {
		s.appendRow()
		heading := s.appendRow(p.Heading())
		s.emphasize(heading, 0, true, false)

		header := make([]any, 0, notestable.ColumnCount)
		for _, h := range doc.Header {
			header = append(header, h)
		}
		row := s.appendRow(header...)
		for c := range header {
			s.emphasize(row, c, true, false)
		}

		if err := notestable.Apply(grid{s}, p.Layout); err != nil {
			return Sheet{}, fmt.Errorf("page %s: %w", p.Date, err)
		}

		total := s.appendRow()
		s.Values[total][notestable.CaloriesColumn] = "Day total"
		s.Values[total][notestable.TotalCaloriesColumn] = p.TotalCalories
		s.emphasize(total, notestable.CaloriesColumn, true, false)
		s.emphasize(total, notestable.TotalCaloriesColumn, true, false)
	}
	return *s, nil
}

// appendRow adds a row of ColumnCount cells, filling the leading ones from
// values, and returns its index.
func (s *Sheet) appendRow(values ...any) int {
	row := make([]any, notestable.ColumnCount)
	for i := range row {
		row[i] = ""
	}
	copy(row, values)
	s.Values = append(s.Values, row)
	return len(s.Values) - 1
}

func (s *Sheet) emphasize(row, col int, bold, italic bool) {
	s.Emphasis = append(s.Emphasis, Emphasis{Row: row, Col: col, Bold: bold, Italic: italic})
}

// Range is the A1 range covering the whole value matrix.
func (s Sheet) Range() string {
	return fmt.Sprintf("%s!A1:%s%d", QuoteTitle(s.Title), columnLetter(notestable.ColumnCount-1), max(len(s.Values), 1))
}

// TSV renders the value matrix as tab-separated lines.
func (s Sheet) TSV() string {
	var b strings.Builder
	for _, row := range s.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

// QuoteTitle quotes a tab name for A1 notation.
func QuoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func columnLetter(col int) string {
	return string(rune('A' + col))
}

// grid adapts a Sheet to notestable.Grid.
type grid struct {
	s *Sheet
}

func (g grid) RowCount() int {
	return len(g.s.Values)
}

func (g grid) AppendRow() error {
	g.s.appendRow()
	return nil
}

func (g grid) SetCell(row, col int, c notestable.Cell) error {
	if row < 0 || row >= len(g.s.Values) || col < 0 || col >= notestable.ColumnCount {
		return fmt.Errorf("set cell (%d, %d): %w", row, col, notestable.ErrOutOfRange)
	}
	var v any = c.Text
	if n, err := strconv.Atoi(c.Text); err == nil {
		v = n
	}
	g.s.Values[row][col] = v
	if c.MergeDown > 0 {
		g.s.Merges = append(g.s.Merges, Span{Row: row, Col: col, Rows: c.MergeDown + 1})
	}
	if c.Bold || c.Italic {
		g.s.emphasize(row, col, c.Bold, c.Italic)
	}
	return nil
}
