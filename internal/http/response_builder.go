// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps service errors onto status codes.

package http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"fooddiary/internal/core"
	applog "fooddiary/internal/log"
)

// JSONResponseBuilder provides a fluent API for building API responses.
type JSONResponseBuilder struct {
	statusCode  int
	headers     map[string]string
	body        any
	raw         []byte
	contentType string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets a value to be encoded as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Attachment sets a file download as the response body.
func (b *JSONResponseBuilder) Attachment(name, contentType string, data []byte) *JSONResponseBuilder {
	b.raw = data
	b.contentType = contentType
	b.headers["Content-Disposition"] = mime.FormatMediaType("attachment", map[string]string{"filename": name})
	b.headers["Content-Length"] = strconv.Itoa(len(data))
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.raw != nil {
		w.Header().Set("Content-Type", b.contentType)
		w.WriteHeader(b.statusCode)
		_, _ = w.Write(b.raw)
		return
	}

	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error string `json:"error"`
}

type validationBody struct {
	Errors map[string][]string `json:"errors"`
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// ValidationErrorResponse creates a 400 response listing messages per field.
func ValidationErrorResponse(errs core.ValidationErrors) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusBadRequest).
		JSON(validationBody{Errors: errs.Fields()})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// ErrorFor maps a service error to its response. The second result is the
// log error type, empty for client errors that need no log line.
func ErrorFor(err error) (*JSONResponseBuilder, string) {
	var (
		verrs  core.ValidationErrors
		maxErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verrs):
		return ValidationErrorResponse(verrs), ""
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError(err.Error()), ""
	case errors.Is(err, core.ErrInvalidIDs),
		errors.Is(err, core.ErrInvalidMove),
		errors.Is(err, core.ErrZeroDate):
		return BadRequestError(err.Error()), ""
	case errors.As(err, &maxErr):
		return ErrorResponse(http.StatusRequestEntityTooLarge,
			"Request body exceeds "+strconv.FormatInt(maxErr.Limit, 10)+" bytes"), ""
	}
	return InternalServerError("Internal server error"), applog.ErrorTypeInternal
}

// writeError writes the response for err and logs unexpected failures.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp, errType := ErrorFor(err)
	if errType != "" {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, errType,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
	}
	resp.Write(w)
}
