// Package export turns diary pages into downloadable documents.
package export

import (
	"fmt"

	"fooddiary/internal/core"
	"fooddiary/internal/notestable"
)

// Format is a downloadable document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ParseFormat accepts the format names used in URLs and on the command line.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatPDF, FormatXLSX, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// FileName returns the download name for a range, e.g. FoodDiary_2024-01-01_2024-01-31.pdf.
func FileName(r core.DateRange, f Format) string {
	return fmt.Sprintf("FoodDiary_%s_%s.%s", r.Start, r.End, f)
}

// PageTable is the rendered notes table of one diary page.
type PageTable struct {
	PageID        int64
	Date          core.Date
	Layout        notestable.Layout
	TotalCalories int
}

// Document is a rendered export of a date range.
type Document struct {
	Title  string
	Range  core.DateRange
	Header [notestable.ColumnCount]string
	Pages  []PageTable
}

// TotalCalories sums the day totals.
func (d Document) TotalCalories() int {
	total := 0
	for _, p := range d.Pages {
		total += p.TotalCalories
	}
	return total
}

// BuildDocument renders every page with renderer. Pages keep their order.
func BuildDocument(title string, r core.DateRange, pages []core.Page, renderer *notestable.Renderer) Document {
	if renderer == nil {
		renderer = notestable.NewRenderer(nil, nil, nil)
	}
	doc := Document{
		Title:  title,
		Range:  r,
		Header: notestable.Header,
		Pages:  make([]PageTable, 0, len(pages)),
	}
	for _, p := range pages {
		layout := renderer.Render(p.Notes)
		doc.Pages = append(doc.Pages, PageTable{
			PageID:        p.ID,
			Date:          p.Date,
			Layout:        layout,
			TotalCalories: layout.TotalCalories(),
		})
	}
	return doc
}

// Heading is the title line of a page table.
func (p PageTable) Heading() string {
	return p.Date.Format("Monday, 02 January 2006")
}
