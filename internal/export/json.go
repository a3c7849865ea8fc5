package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"fooddiary/internal/core"
)

// Diary is the JSON interchange document. Products and categories are
// referenced by name so a file can be imported into another database.
type Diary struct {
	Pages []DiaryPage `json:"pages"`
}

type DiaryPage struct {
	Date  core.Date   `json:"date"`
	Notes []DiaryNote `json:"notes"`
}

type DiaryNote struct {
	MealType        core.MealType `json:"mealType"`
	DisplayOrder    int           `json:"displayOrder"`
	ProductQuantity int           `json:"productQuantity"`
	Product         DiaryProduct  `json:"product"`
}

type DiaryProduct struct {
	Name            string `json:"name"`
	CaloriesCost    int    `json:"caloriesCost"`
	DefaultQuantity int    `json:"defaultQuantity"`
	Category        string `json:"category"`
}

// NewDiary converts loaded pages. Notes without a product are skipped.
func NewDiary(pages []core.Page) Diary {
	d := Diary{Pages: make([]DiaryPage, 0, len(pages))}
	for _, p := range pages {
		dp := DiaryPage{Date: p.Date, Notes: make([]DiaryNote, 0, len(p.Notes))}
		for _, n := range p.Notes {
			if n.Product == nil {
				continue
			}
			dp.Notes = append(dp.Notes, DiaryNote{
				MealType:        n.MealType,
				DisplayOrder:    n.DisplayOrder,
				ProductQuantity: n.ProductQuantity,
				Product: DiaryProduct{
					Name:            n.Product.Name,
					CaloriesCost:    n.Product.CaloriesCost,
					DefaultQuantity: n.Product.DefaultQuantity,
					Category:        n.Product.CategoryName(),
				},
			})
		}
		d.Pages = append(d.Pages, dp)
	}
	return d
}

// EncodeJSON writes pages as an indented Diary document.
func EncodeJSON(w io.Writer, pages []core.Page) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDiary(pages)); err != nil {
		return fmt.Errorf("encode diary: %w", err)
	}
	return nil
}

// DecodeJSON reads and validates a Diary document. Validation problems are
// returned as core.ValidationErrors keyed by JSON path.
func DecodeJSON(r io.Reader) (Diary, error) {
	var d Diary
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return Diary{}, core.NewValidationError("importFile", "Import file is not a valid diary document: %v", err)
	}
	if err := d.Validate(); err != nil {
		return Diary{}, err
	}
	return d, nil
}

// Validate checks every page and note of the document.
func (d Diary) Validate() error {
	var errs core.ValidationErrors
	seen := make(map[string]int, len(d.Pages))
	for i, p := range d.Pages {
		path := fmt.Sprintf("pages[%d]", i)
		if p.Date.IsZero() {
			errs.Add(path+".date", "Date is required")
		} else if j, dup := seen[p.Date.String()]; dup {
			errs.Add(path+".date", fmt.Sprintf("Date %s repeats pages[%d]", p.Date, j))
		} else {
			seen[p.Date.String()] = i
		}
		for k, n := range p.Notes {
			n.validate(&errs, fmt.Sprintf("%s.notes[%d]", path, k))
		}
	}
	return errs.Err()
}

func (n DiaryNote) validate(errs *core.ValidationErrors, path string) {
	if !n.MealType.Valid() {
		errs.Add(path+".mealType", "Meal type is invalid")
	}
	if n.DisplayOrder < 0 {
		errs.Add(path+".displayOrder", "Display order must not be negative")
	}
	if n.ProductQuantity < core.MinQuantity || n.ProductQuantity > core.MaxQuantity {
		errs.Add(path+".productQuantity",
			fmt.Sprintf("Product quantity must be between %d and %d", core.MinQuantity, core.MaxQuantity))
	}
	name := utf8.RuneCountInString(strings.TrimSpace(n.Product.Name))
	if name < core.MinProductNameLength || name > core.MaxProductNameLength {
		errs.Add(path+".product.name",
			fmt.Sprintf("Name must be between %d and %d characters", core.MinProductNameLength, core.MaxProductNameLength))
	}
	if n.Product.CaloriesCost < core.MinCaloriesCost || n.Product.CaloriesCost > core.MaxCaloriesCost {
		errs.Add(path+".product.caloriesCost",
			fmt.Sprintf("Calories cost must be between %d and %d", core.MinCaloriesCost, core.MaxCaloriesCost))
	}
	if q := n.Product.DefaultQuantity; q != 0 && (q < core.MinQuantity || q > core.MaxQuantity) {
		errs.Add(path+".product.defaultQuantity",
			fmt.Sprintf("Default quantity must be between %d and %d", core.MinQuantity, core.MaxQuantity))
	}
	category := utf8.RuneCountInString(strings.TrimSpace(n.Product.Category))
	if category < core.MinCategoryNameLength || category > core.MaxCategoryNameLength {
		errs.Add(path+".product.category",
			fmt.Sprintf("Category must be between %d and %d characters", core.MinCategoryNameLength, core.MaxCategoryNameLength))
	}
}
