package core

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError reports a problem with one input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every field problem of one request.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Add appends a field error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// Err returns v as an error, or nil when nothing was collected.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Fields groups messages by field name.
func (v ValidationErrors) Fields() map[string][]string {
	out := make(map[string][]string, len(v))
	for _, e := range v {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}

// NewValidationError returns a single-field validation error.
func NewValidationError(field, format string, args ...any) error {
	return ValidationErrors{{Field: field, Message: fmt.Sprintf(format, args...)}}
}

const (
	MinCategoryNameLength = 1
	MaxCategoryNameLength = 64
	MinProductNameLength  = 2
	MaxProductNameLength  = 64
	MinCaloriesCost       = 1
	MaxCaloriesCost       = 3000
	MinQuantity           = 1
	MaxQuantity           = 999
	DefaultQuantity       = 100
)

type (
	CategoryInput struct {
		Name string
	}

	ProductInput struct {
		Name            string
		CaloriesCost    int
		DefaultQuantity int
		CategoryID      int64
	}

	PageInput struct {
		Date Date
	}

	NoteInput struct {
		PageID          int64
		MealType        MealType
		ProductID       int64
		ProductQuantity int
	}

	// NoteMove places a note at Position (0-based) in the MealType group of its page.
	NoteMove struct {
		NoteID   int64
		MealType MealType
		Position int
	}
)

func checkLength(errs *ValidationErrors, field, value string, min, max int) {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case n == 0:
		errs.Add(field, "Name is required")
	case n < min || n > max:
		errs.Add(field, fmt.Sprintf("Name must be between %d and %d characters", min, max))
	}
}

func checkRange(errs *ValidationErrors, field, label string, value, min, max int) {
	if value < min || value > max {
		errs.Add(field, fmt.Sprintf("%s must be between %d and %d", label, min, max))
	}
}

func (in CategoryInput) Validate() error {
	var errs ValidationErrors
	checkLength(&errs, "name", in.Name, MinCategoryNameLength, MaxCategoryNameLength)
	return errs.Err()
}

// Normalize trims the name.
func (in CategoryInput) Normalize() CategoryInput {
	in.Name = strings.TrimSpace(in.Name)
	return in
}

func (in ProductInput) Validate() error {
	var errs ValidationErrors
	checkLength(&errs, "name", in.Name, MinProductNameLength, MaxProductNameLength)
	checkRange(&errs, "caloriesCost", "Calories cost", in.CaloriesCost, MinCaloriesCost, MaxCaloriesCost)
	checkRange(&errs, "defaultQuantity", "Default quantity", in.DefaultQuantity, MinQuantity, MaxQuantity)
	if in.CategoryID <= 0 {
		errs.Add("categoryId", "Category is required")
	}
	return errs.Err()
}

// Normalize trims the name and fills the default quantity when omitted.
func (in ProductInput) Normalize() ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.DefaultQuantity == 0 {
		in.DefaultQuantity = DefaultQuantity
	}
	return in
}

func (in PageInput) Validate() error {
	if in.Date.IsZero() {
		return NewValidationError("date", "Date is required")
	}
	return nil
}

func (in NoteInput) Validate() error {
	var errs ValidationErrors
	if in.PageID <= 0 {
		errs.Add("pageId", "Page is required")
	}
	if !in.MealType.Valid() {
		errs.Add("mealType", "Meal type is invalid")
	}
	if in.ProductID <= 0 {
		errs.Add("productId", "Product is required")
	}
	checkRange(&errs, "productQuantity", "Product quantity", in.ProductQuantity, MinQuantity, MaxQuantity)
	return errs.Err()
}

func (in NoteMove) Validate() error {
	var errs ValidationErrors
	if in.NoteID <= 0 {
		errs.Add("noteId", "Note is required")
	}
	if !in.MealType.Valid() {
		errs.Add("mealType", "Meal type is invalid")
	}
	if in.Position < 0 {
		errs.Add("position", "Position must not be negative")
	}
	return errs.Err()
}
