package http

import (
	"strconv"
	"testing"

	"fooddiary/internal/core"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestRoutePath(t *testing.T) {
	tests := []struct{ pattern, want string }{
		{"GET /api/v1/pages/{id}", "/api/v1/pages/{id}"},
		{"/api/", "/api/"},
	}
	for _, tt := range tests {
		if got := routePath(tt.pattern); got != tt.want {
			t.Errorf("routePath(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}
