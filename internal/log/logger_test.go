package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: "storage", Output: &buf})

	logger.Info("opened", "path", "diary.db")
	logger.WithComponent("export").Warn("slow")

	out := buf.String()
	if !strings.Contains(out, "component=storage") {
		t.Errorf("missing storage component in %q", out)
	}
	if !strings.Contains(out, "component=export") {
		t.Errorf("missing export component in %q", out)
	}
	if !strings.Contains(out, "path=diary.db") {
		t.Errorf("missing attribute in %q", out)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil || l.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %+v", l)
	}

	var buf bytes.Buffer
	want := New(Config{Component: "http", Output: &buf})
	ctx := NewContext(context.Background(), want)
	if got := FromContext(ctx); got != want {
		t.Fatal("expected logger stored in context")
	}
}

func TestLogHTTPEndLevelByStatus(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))
	r := httptest.NewRequest("GET", "/api/v1/pages", nil)

	sl.LogHTTPEnd(context.Background(), r, 404, 3, "127.0.0.1")
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("404 should log at warn: %q", buf.String())
	}

	buf.Reset()
	sl.LogHTTPEnd(context.Background(), r, 500, 3, "127.0.0.1")
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("500 should log at error: %q", buf.String())
	}
}
