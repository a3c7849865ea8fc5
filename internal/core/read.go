package core

import (
	"fmt"
	"strings"
	"time"
)

type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// ParseSortOrder accepts "asc"/"desc" and the numeric forms 0/1. Empty means ascending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "asc", "ascending":
		return SortAscending, nil
	case "1", "desc", "descending":
		return SortDescending, nil
	}
	return 0, fmt.Errorf("unknown sort order %q", s)
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Paging selects one page of a result list. PageNumber is 1-based.
type Paging struct {
	PageNumber int
	PageSize   int
}

func (p Paging) Validate() error {
	var errs ValidationErrors
	if p.PageNumber < 1 {
		errs.Add("pageNumber", "Page number must be at least 1")
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		errs.Add("pageSize", fmt.Sprintf("Page size must be between 1 and %d", MaxPageSize))
	}
	return errs.Err()
}

func (p Paging) Offset() int {
	return (p.PageNumber - 1) * p.PageSize
}

// PageFilter narrows page searches. Zero dates leave that side open.
type PageFilter struct {
	Start  Date
	End    Date
	Sort   SortOrder
	Paging Paging
}

// ProductFilter narrows product searches. A zero CategoryID matches every category.
type ProductFilter struct {
	CategoryID int64
	Name       string
	Paging     Paging
}

type PageSummary struct {
	ID            int64
	Date          Date
	CountNotes    int
	CountCalories int
}

type CategorySummary struct {
	Category
	CountProducts int
}

type DailyCalories struct {
	Date     Date
	Calories int
}

type (
	ExportKind string
	JobStatus  string
)

const (
	ExportKindGoogleSheets ExportKind = "google_sheets"

	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// Finished reports whether the job reached a terminal state.
func (s JobStatus) Finished() bool {
	return s == JobDone || s == JobFailed
}

// ExportJob is an asynchronous export request.
type ExportJob struct {
	ID        string
	Kind      ExportKind
	Range     DateRange
	Status    JobStatus
	Attempts  int
	LastError string
	ResultRef string
	CreatedAt time.Time
	UpdatedAt time.Time
}
