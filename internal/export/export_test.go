package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"fooddiary/internal/core"
	"fooddiary/internal/notestable"
)

var (
	testRange = core.DateRange{Start: core.NewDate(2024, 3, 1), End: core.NewDate(2024, 3, 31)}
	oats      = &core.Product{ID: 1, Name: "Oats", CaloriesCost: 370, DefaultQuantity: 60, Category: &core.Category{ID: 1, Name: "Cereals"}}
	milk      = &core.Product{ID: 2, Name: "Milk", CaloriesCost: 64, DefaultQuantity: 200, Category: &core.Category{ID: 2, Name: "Dairy"}}
)

func testPages() []core.Page {
	return []core.Page{
		{
			ID:   1,
			Date: core.NewDate(2024, 3, 10),
			Notes: []core.Note{
				{ID: 1, MealType: core.Breakfast, Product: oats, ProductQuantity: 60, DisplayOrder: 0},
				{ID: 2, MealType: core.Breakfast, Product: milk, ProductQuantity: 200, DisplayOrder: 1},
				{ID: 3, MealType: core.Dinner, Product: milk, ProductQuantity: 150, DisplayOrder: 0},
			},
		},
		{ID: 2, Date: core.NewDate(2024, 3, 11)},
	}
}

func TestBuildDocument(t *testing.T) {
	doc := BuildDocument("Food diary", testRange, testPages(), nil)

	if len(doc.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(doc.Pages))
	}
	first := doc.Pages[0]
	// Breakfast 222 + 128 = 350, dinner 96.
	if first.TotalCalories != 446 {
		t.Errorf("day total = %d, want 446", first.TotalCalories)
	}
	if len(first.Layout.Groups) != 2 || first.Layout.Groups[0].Calories != 350 {
		t.Errorf("groups = %+v", first.Layout.Groups)
	}
	if !doc.Pages[1].Layout.Empty() || doc.Pages[1].TotalCalories != 0 {
		t.Errorf("empty page = %+v", doc.Pages[1])
	}
	if doc.TotalCalories() != 446 {
		t.Errorf("document total = %d", doc.TotalCalories())
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(testRange, FormatXLSX); got != "FoodDiary_2024-03-01_2024-03-31.xlsx" {
		t.Errorf("FileName = %q", got)
	}
	if _, err := ParseFormat("docx"); err == nil {
		t.Error("docx should be rejected")
	}
	if f, _ := ParseFormat("pdf"); f.ContentType() != "application/pdf" {
		t.Errorf("content type = %q", f.ContentType())
	}
}

func TestGeneratePDF(t *testing.T) {
	tests := []struct {
		name  string
		pages []core.Page
	}{
		{"with notes", testPages()},
		{"empty range", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := GeneratePDF(BuildDocument("Food diary", testRange, tt.pages, nil))
			if err != nil {
				t.Fatalf("GeneratePDF() error = %v", err)
			}
			if !bytes.HasPrefix(out, []byte("%PDF-")) {
				t.Fatalf("output does not look like a PDF: %q", out[:min(len(out), 16)])
			}
		})
	}
}

func TestPDFBands(t *testing.T) {
	notes := make([]core.Note, 0, 40)
	for i := 0; i < 35; i++ {
		notes = append(notes, core.Note{ID: int64(i + 1), MealType: core.Lunch, Product: milk, ProductQuantity: 10, DisplayOrder: i})
	}
	notes = append(notes, core.Note{ID: 100, MealType: core.Dinner, Product: oats, ProductQuantity: 10})
	layout := notestable.NewRenderer(nil, nil, nil).Render(notes)

	bands := pdfBands(layout)
	want := []band{{0, 30}, {30, 5}, {35, 1}}
	if len(bands) != len(want) {
		t.Fatalf("bands = %v, want %v", bands, want)
	}
	for i := range want {
		if bands[i] != want[i] {
			t.Fatalf("bands = %v, want %v", bands, want)
		}
	}

	origin := mergeOrigin(layout, 30, notestable.MealNameColumn)
	if origin.Text != "Lunch" {
		t.Errorf("continuation text = %q, want Lunch", origin.Text)
	}
}

func TestGenerateXLSX(t *testing.T) {
	out, err := GenerateXLSX(BuildDocument("Food diary", testRange, testPages(), nil))
	if err != nil {
		t.Fatalf("GenerateXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "2024-03-10" || sheets[1] != "2024-03-11" {
		t.Fatalf("sheets = %v", sheets)
	}

	cells := map[string]string{
		"A2": "Meal",
		"A3": "Breakfast",
		"B3": "Oats",
		"D3": "222",
		"E3": "350",
		"B4": "Milk",
		"A5": "Dinner",
		"E5": "96",
		"D6": "Day total",
		"E6": "446",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(sheets[0], cell)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}

	merges, err := f.GetMergeCells(sheets[0])
	if err != nil {
		t.Fatal(err)
	}
	ranges := make(map[string]bool)
	for _, m := range merges {
		ranges[m.GetStartAxis()+":"+m.GetEndAxis()] = true
	}
	for _, want := range []string{"A1:E1", "A3:A4", "E3:E4"} {
		if !ranges[want] {
			t.Errorf("missing merge %s, have %v", want, ranges)
		}
	}
	if ranges["A5:A5"] || len(ranges) != 3 {
		t.Errorf("unexpected merges %v", ranges)
	}

	styleID, err := f.GetCellStyle(sheets[0], "E3")
	if err != nil {
		t.Fatal(err)
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		t.Fatal(err)
	}
	if style.Font == nil || !style.Font.Bold || !style.Font.Italic {
		t.Errorf("group total font = %+v, want bold italic", style.Font)
	}
}

func TestGenerateXLSXEmpty(t *testing.T) {
	out, err := GenerateXLSX(BuildDocument("A title that is much longer than thirty-one characters", testRange, nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if name := f.GetSheetList()[0]; len(name) != 31 {
		t.Errorf("sheet name %q not trimmed", name)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, testPages()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"category": "Cereals"`) {
		t.Errorf("category name missing:\n%s", buf.String())
	}

	d, err := DecodeJSON(&buf)
	if err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	if len(d.Pages) != 2 || len(d.Pages[0].Notes) != 3 || d.Pages[1].Notes == nil {
		t.Fatalf("decoded = %+v", d)
	}
	if n := d.Pages[0].Notes[2]; n.MealType != core.Dinner || n.Product.Name != "Milk" {
		t.Errorf("note = %+v", n)
	}
}

func TestDecodeJSONValidation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"not json", `{"pages": [`, "importFile"},
		{"unknown field", `{"pages": [], "extra": 1}`, "importFile"},
		{"missing date", `{"pages": [{"notes": []}]}`, "pages[0].date"},
		{"duplicate date", `{"pages": [{"date": "2024-01-01"}, {"date": "2024-01-01"}]}`, "pages[1].date"},
		{"bad meal", `{"pages": [{"date": "2024-01-01", "notes": [{"mealType": 9, "productQuantity": 10,
			"product": {"name": "Tea", "caloriesCost": 1, "category": "Drinks"}}]}]}`, "pages[0].notes[0].mealType"},
		{"bad quantity", `{"pages": [{"date": "2024-01-01", "notes": [{"mealType": 1, "productQuantity": 0,
			"product": {"name": "Tea", "caloriesCost": 1, "category": "Drinks"}}]}]}`, "pages[0].notes[0].productQuantity"},
		{"missing category", `{"pages": [{"date": "2024-01-01", "notes": [{"mealType": 1, "productQuantity": 5,
			"product": {"name": "Tea", "caloriesCost": 1}}]}]}`, "pages[0].notes[0].product.category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON(strings.NewReader(tt.body))
			var verrs core.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("err = %v, want ValidationErrors", err)
			}
			if _, ok := verrs.Fields()[tt.wantField]; !ok {
				t.Errorf("fields = %v, want %s", verrs.Fields(), tt.wantField)
			}
		})
	}
}
