package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fooddiary/internal/core"
	"fooddiary/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "services.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestServices(t *testing.T) *Services {
	t.Helper()
	repo := newTestRepo(t)
	exports := NewExportService(repo, nil, nil, ExportConfig{MaxDays: 31})
	return New(repo, NewDropdownCache(16, time.Minute), exports)
}

// requireField fails unless err is a validation error on field.
func requireField(t *testing.T, err error, field string) {
	t.Helper()
	var verrs core.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("err = %v, want validation error on %s", err, field)
	}
	if _, ok := verrs.Fields()[field]; !ok {
		t.Fatalf("validation fields = %v, want %s", verrs.Fields(), field)
	}
}

func TestUniqueIDs(t *testing.T) {
	tests := []struct {
		name    string
		ids     []int64
		want    []int64
		wantErr bool
	}{
		{"sorted and deduplicated", []int64{3, 1, 3, 2}, []int64{1, 2, 3}, false},
		{"empty", nil, nil, true},
		{"zero id", []int64{0, 4}, nil, true},
		{"negative id", []int64{-1}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uniqueIDs(tt.ids)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidIDs) {
					t.Fatalf("err = %v, want ErrInvalidIDs", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestNilDropdownCache(t *testing.T) {
	var c *DropdownCache
	c.Invalidate()
	cats, prods := c.Stats()
	if cats.Size != 0 || prods.Size != 0 {
		t.Errorf("stats = %+v %+v", cats, prods)
	}
}

func TestServicesPing(t *testing.T) {
	s := newTestServices(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}
