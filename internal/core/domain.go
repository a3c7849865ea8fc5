package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a diary day.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar day in UTC.
	Date struct {
		time.Time
	}

	// DateRange is an inclusive range of diary days.
	DateRange struct {
		Start Date
		End   Date
	}

	Category struct {
		ID   int64
		Name string
	}

	Product struct {
		ID              int64
		Name            string
		CaloriesCost    int // per 100 g
		DefaultQuantity int
		CategoryID      int64
		Category        *Category
	}

	// Page is one day of the diary.
	Page struct {
		ID    int64
		Date  Date
		Notes []Note
	}

	// Note is a single recorded consumption on a page. Product may be nil when
	// the note was loaded without its product.
	Note struct {
		ID              int64
		PageID          int64
		MealType        MealType
		ProductID       int64
		Product         *Product
		ProductQuantity int
		DisplayOrder    int
	}
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidIDs  = errors.New("wrong ids specified")
	ErrInvalidMove = errors.New("note cannot be moved to the specified position")
	ErrZeroDate    = errors.New("date cannot be zero")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	// Accept full timestamps too; only the day part is kept.
	if len(s) > len(DateLayout) {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", s, err)
		}
		*d = DateOf(t)
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks that both ends are set and ordered.
func (r DateRange) Validate() error {
	var errs ValidationErrors
	if r.Start.IsZero() {
		errs.Add("startDate", "Start date is required")
	}
	if r.End.IsZero() {
		errs.Add("endDate", "End date is required")
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start.Time) {
		errs.Add("endDate", "End date must not be earlier than start date")
	}
	return errs.Err()
}

// Days returns the number of days covered, both ends included.
func (r DateRange) Days() int {
	if r.Start.IsZero() || r.End.IsZero() {
		return 0
	}
	return int(r.End.Sub(r.Start.Time).Hours()/24) + 1
}

func (r DateRange) String() string {
	return r.Start.String() + "_" + r.End.String()
}

// Calories returns the calories of the note, zero when the product is not loaded.
func (n Note) Calories() float64 {
	if n.Product == nil {
		return 0
	}
	return CaloriesForQuantity(n.Product.CaloriesCost, n.ProductQuantity)
}

// TotalCalories sums the calories of every note on the page, truncated once at the end.
func (p Page) TotalCalories() int {
	var sum float64
	for _, n := range p.Notes {
		sum += n.Calories()
	}
	return int(sum)
}

// CategoryName returns the product's category name, or "" when not loaded.
func (p Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}
