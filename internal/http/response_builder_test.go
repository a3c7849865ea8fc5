package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fooddiary/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/v1/pages/7").
		JSON(idResponse{ID: 7}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("Location") != "/api/v1/pages/7" {
		t.Errorf("Location = %q", w.Header().Get("Location"))
	}
	if w.Body.String() != "{\"id\":7}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != "" {
		t.Errorf("unexpected Content-Type %q", w.Header().Get("Content-Type"))
	}
}

func TestJSONResponseBuilder_Attachment(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Attachment("FoodDiary_2024-01-01_2024-01-31.pdf", "application/pdf", []byte("%PDF-1.4")).
		Write(w)

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename=FoodDiary_2024-01-01_2024-01-31.pdf` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Header().Get("Content-Type") != "application/pdf" || w.Header().Get("Content-Length") != "8" {
		t.Errorf("headers = %v", w.Header())
	}
	if w.Body.String() != "%PDF-1.4" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestErrorFor(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		body    string
		logType bool
	}{
		{
			name:   "validation",
			err:    fmt.Errorf("create: %w", core.ValidationErrors{{Field: "name", Message: "Name is required"}, {Field: "name", Message: "again"}}),
			status: http.StatusBadRequest,
			body:   `{"errors":{"name":["Name is required","again"]}}`,
		},
		{
			name:   "not found",
			err:    fmt.Errorf("page 4: %w", core.ErrNotFound),
			status: http.StatusNotFound,
			body:   `{"error":"page 4: not found"}`,
		},
		{
			name:   "invalid ids",
			err:    core.ErrInvalidIDs,
			status: http.StatusBadRequest,
			body:   `{"error":"wrong ids specified"}`,
		},
		{
			name:   "invalid move",
			err:    core.ErrInvalidMove,
			status: http.StatusBadRequest,
			body:   `{"error":"note cannot be moved to the specified position"}`,
		},
		{
			name:   "too large",
			err:    &http.MaxBytesError{Limit: 1024},
			status: http.StatusRequestEntityTooLarge,
			body:   `{"error":"Request body exceeds 1024 bytes"}`,
		},
		{
			name:    "unexpected",
			err:     errors.New("disk on fire"),
			status:  http.StatusInternalServerError,
			body:    `{"error":"Internal server error"}`,
			logType: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, errType := ErrorFor(tt.err)
			w := httptest.NewRecorder()
			resp.Write(w)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var got, want any
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if err := json.Unmarshal([]byte(tt.body), &want); err != nil {
				t.Fatal(err)
			}
			if fmt.Sprint(got) != fmt.Sprint(want) {
				t.Errorf("body = %s, want %s", w.Body.String(), tt.body)
			}
			if (errType != "") != tt.logType {
				t.Errorf("error type = %q", errType)
			}
		})
	}
}
