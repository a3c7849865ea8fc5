package export

import (
	"fmt"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"fooddiary/internal/notestable"
)

const (
	pdfRowHeight = 6.0
	pdfFontSize  = 9.0
	// A band taller than this is split so it always fits on one A4 page.
	pdfMaxBandRows = 30
)

// Grid widths out of maroto's 12 columns.
var pdfColumnSizes = [notestable.ColumnCount]int{
	notestable.MealNameColumn:      2,
	notestable.ProductColumn:       4,
	notestable.QuantityColumn:      2,
	notestable.CaloriesColumn:      2,
	notestable.TotalCaloriesColumn: 2,
}

var (
	pdfHeaderBg = &props.Color{Red: 230, Green: 230, Blue: 230}
	pdfMuted    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// GeneratePDF renders doc as an A4 PDF and returns its bytes.
func GeneratePDF(doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addPDFTitle(m, doc)
	if len(doc.Pages) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(text.New("No diary pages in this period.", props.Text{
			Size:  pdfFontSize,
			Style: fontstyle.Italic,
			Color: pdfMuted,
		}))))
	}
	for _, p := range doc.Pages {
		addPDFPage(m, doc.Header, p)
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}
	return out.GetBytes(), nil
}

func addPDFTitle(m core.Maroto, doc Document) {
	m.AddRows(
		row.New(10).Add(
			col.New(8).Add(text.New(doc.Title, props.Text{
				Size:  14,
				Style: fontstyle.Bold,
				Align: align.Left,
			})),
			col.New(4).Add(text.New(doc.Range.Start.String()+" to "+doc.Range.End.String(), props.Text{
				Size:  9,
				Align: align.Right,
				Color: pdfMuted,
			})),
		),
		row.New(3),
	)
}

func addPDFPage(m core.Maroto, header [notestable.ColumnCount]string, p PageTable) {
	m.AddRows(row.New(8).Add(col.New(12).Add(text.New(p.Heading(), props.Text{
		Top:   1,
		Size:  11,
		Style: fontstyle.Bold,
	}))))

	headerCell := &props.Cell{BackgroundColor: pdfHeaderBg, BorderType: border.Full}
	cols := make([]core.Col, 0, notestable.ColumnCount)
	for i, title := range header {
		cols = append(cols, col.New(pdfColumnSizes[i]).Add(text.New(title, props.Text{
			Top:   1.5,
			Size:  pdfFontSize,
			Style: fontstyle.Bold,
			Align: align.Center,
		})).WithStyle(headerCell))
	}
	m.AddRows(row.New(pdfRowHeight).Add(cols...))

	if p.Layout.Empty() {
		m.AddRows(row.New(pdfRowHeight).Add(col.New(12).Add(text.New("No notes", props.Text{
			Top:   1.5,
			Size:  pdfFontSize,
			Style: fontstyle.Italic,
			Color: pdfMuted,
		}))))
	}
	for _, b := range pdfBands(p.Layout) {
		m.AddRows(pdfBandRow(p.Layout, b))
	}

	m.AddRows(
		row.New(pdfRowHeight).Add(
			col.New(10).Add(text.New("Day total", props.Text{
				Top:   1.5,
				Size:  pdfFontSize,
				Style: fontstyle.Bold,
				Align: align.Right,
			})),
			col.New(2).Add(text.New(strconv.Itoa(p.TotalCalories), props.Text{
				Top:   1.5,
				Size:  pdfFontSize,
				Style: fontstyle.Bold,
				Align: align.Center,
			})),
		),
		row.New(4),
	)
}

// band is a run of layout rows painted as one maroto row.
type band struct {
	first, count int
}

// pdfBands splits layout rows into bands so no merged cell crosses a band
// boundary. A merge longer than pdfMaxBandRows is cut and its text repeated at
// the top of the continuation band.
func pdfBands(layout notestable.Layout) []band {
	var bands []band
	for start := 0; start < len(layout.Rows); {
		end := start + 1
		for r := start; r < end && r < len(layout.Rows); r++ {
			for _, c := range layout.Rows[r].Cells {
				if r+c.MergeDown+1 > end {
					end = r + c.MergeDown + 1
				}
			}
		}
		if end > len(layout.Rows) {
			end = len(layout.Rows)
		}
		for s := start; s < end; s += pdfMaxBandRows {
			bands = append(bands, band{first: s, count: min(pdfMaxBandRows, end-s)})
		}
		start = end
	}
	return bands
}

func pdfBandRow(layout notestable.Layout, b band) core.Row {
	cellStyle := &props.Cell{BorderType: border.Full}
	cols := make([]core.Col, 0, notestable.ColumnCount)
	for c := 0; c < notestable.ColumnCount; c++ {
		column := col.New(pdfColumnSizes[c]).WithStyle(cellStyle)
		for i := 0; i < b.count; i++ {
			r := b.first + i
			cell := layout.Rows[r].Cells[c]
			if layout.Covered(r, c) {
				if i > 0 {
					continue
				}
				// Continuation band: repeat the text of the merge above.
				cell = mergeOrigin(layout, r, c)
			}
			if cell.Text == "" {
				continue
			}
			span := min(cell.MergeDown+1, b.count-i)
			column.Add(text.New(cell.Text, pdfTextProps(cell, i, span, c)))
		}
		cols = append(cols, column)
	}
	return row.New(float64(b.count) * pdfRowHeight).Add(cols...)
}

// mergeOrigin returns the cell whose merge covers (r, c).
func mergeOrigin(layout notestable.Layout, r, c int) notestable.Cell {
	for i := r - 1; i >= 0; i-- {
		if cell := layout.Rows[i].Cells[c]; cell.MergeDown > 0 {
			return cell
		}
	}
	return notestable.Cell{}
}

func pdfTextProps(cell notestable.Cell, offset, span, column int) props.Text {
	top := float64(offset)*pdfRowHeight + 1.5
	if span > 1 {
		// Center merged text vertically in its span.
		top += float64(span-1) * pdfRowHeight / 2
	}
	p := props.Text{
		Top:   top,
		Left:  1,
		Size:  pdfFontSize,
		Align: align.Left,
	}
	if column != notestable.ProductColumn && column != notestable.MealNameColumn {
		p.Align = align.Center
		p.Left = 0
	}
	switch {
	case cell.Bold && cell.Italic:
		p.Style = fontstyle.BoldItalic
	case cell.Bold:
		p.Style = fontstyle.Bold
	case cell.Italic:
		p.Style = fontstyle.Italic
	}
	return p
}
