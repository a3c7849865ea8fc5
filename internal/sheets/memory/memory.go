package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fooddiary/internal/export"
	"fooddiary/internal/sheets"
)

// Store keeps written sheets in memory. With a directory set, each sheet is
// also dumped there as a TSV file for inspection during development.
type Store struct {
	mu     sync.Mutex
	dir    string
	sheets map[string]sheets.Sheet
	order  []string
}

var _ sheets.DocumentWriter = (*Store)(nil)

func New() *Store {
	return &Store{sheets: make(map[string]sheets.Sheet)}
}

// NewWithDir returns a Store that also writes <title>.tsv files under dir.
func NewWithDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sheets dir: %w", err)
	}
	s := New()
	s.dir = dir
	return s, nil
}

// WriteDocument stores the sheet of doc, replacing one with the same title.
func (s *Store) WriteDocument(_ context.Context, doc export.Document) (string, error) {
	sheet, err := sheets.BuildSheet(doc)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sheets[sheet.Title]; !ok {
		s.order = append(s.order, sheet.Title)
	}
	s.sheets[sheet.Title] = sheet

	if s.dir != "" {
		path := filepath.Join(s.dir, fileName(sheet.Title))
		if err := os.WriteFile(path, []byte(sheet.TSV()), 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	return "mem:" + sheet.Title, nil
}

// Sheet returns the stored sheet with the given title.
func (s *Store) Sheet(title string) (sheets.Sheet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.sheets[title]
	return sh, ok
}

// Titles lists stored sheets in first-write order.
func (s *Store) Titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

func fileName(title string) string {
	return strings.NewReplacer(" ", "_", "/", "-").Replace(title) + ".tsv"
}
