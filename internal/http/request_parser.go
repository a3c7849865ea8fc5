// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Query and path problems are collected as field errors so that a single
// 400 response can report all of them.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"fooddiary/internal/core"
)

// QueryParams reads typed values from a query string and remembers every
// value that failed to parse.
type QueryParams struct {
	values url.Values
	errs   core.ValidationErrors
}

// NewQueryParams wraps the query of r.
func NewQueryParams(r *http.Request) *QueryParams {
	return &QueryParams{values: r.URL.Query()}
}

// String returns the sanitized value of key, or "".
func (q *QueryParams) String(key string) string {
	return sanitizeInput(q.values.Get(key))
}

// Int returns the value of key, or def when absent.
func (q *QueryParams) Int(key string, def int) int {
	v := q.String(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		q.errs.Add(key, fmt.Sprintf("'%s' is not a valid number", v))
		return def
	}
	return n
}

// ID returns the positive id in key, or 0 when absent.
func (q *QueryParams) ID(key string) int64 {
	v := q.String(key)
	if v == "" {
		return 0
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		q.errs.Add(key, fmt.Sprintf("'%s' is not a valid id", v))
		return 0
	}
	return id
}

// Date returns the date in key. An absent value is the zero Date.
func (q *QueryParams) Date(key string) core.Date {
	v := q.String(key)
	if v == "" {
		return core.Date{}
	}
	d, err := core.ParseDate(v)
	if err != nil {
		q.errs.Add(key, fmt.Sprintf("'%s' is not a valid date, expected YYYY-MM-DD", v))
		return core.Date{}
	}
	return d
}

// DateRange reads startDate and endDate.
func (q *QueryParams) DateRange() core.DateRange {
	return core.DateRange{Start: q.Date("startDate"), End: q.Date("endDate")}
}

// SortOrder reads sortOrder, ascending when absent.
func (q *QueryParams) SortOrder(key string) core.SortOrder {
	order, err := core.ParseSortOrder(q.String(key))
	if err != nil {
		q.errs.Add(key, "Sort order must be 'asc' or 'desc'")
	}
	return order
}

// Paging reads pageNumber and pageSize with defaults 1 and core.DefaultPageSize.
func (q *QueryParams) Paging() core.Paging {
	return core.Paging{
		PageNumber: q.Int("pageNumber", 1),
		PageSize:   q.Int("pageSize", core.DefaultPageSize),
	}
}

// Err returns the collected parse errors, or nil.
func (q *QueryParams) Err() error {
	return q.errs.Err()
}

// pathID reads a positive int64 path value.
func pathID(r *http.Request, name string) (int64, error) {
	v := r.PathValue(name)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.NewValidationError(name, "'%s' is not a valid id", v)
	}
	return id, nil
}

// decodeJSON reads a single JSON value from the body into dst. Unknown
// fields and trailing data are rejected. The body is capped at maxBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return core.NewValidationError("body", "Request body must contain a single JSON value")
	}
	return nil
}

// bodyError turns a decoding failure into a field error. Size violations
// are returned unchanged.
func bodyError(err error) error {
	var (
		maxErr    *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &maxErr):
		return err
	case errors.Is(err, io.EOF):
		return core.NewValidationError("body", "Request body is required")
	case errors.As(err, &syntaxErr):
		return core.NewValidationError("body", "Malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return core.NewValidationError(typeErr.Field, "Expected a value of type %s", typeErr.Type)
	}
	return core.NewValidationError("body", "%s", err.Error())
}
