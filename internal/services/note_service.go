package services

import (
	"context"
	"log/slog"

	"fooddiary/internal/core"
	"fooddiary/internal/storage"
)

// NoteService manages the notes of diary pages and their order inside
// meal groups.
type NoteService struct {
	repo *storage.SQLiteRepository
}

func NewNoteService(repo *storage.SQLiteRepository) *NoteService {
	return &NoteService{repo: repo}
}

// Search returns the notes of a page ordered by meal type and display order.
func (s *NoteService) Search(ctx context.Context, pageID int64) ([]core.Note, error) {
	if _, err := s.repo.GetPage(ctx, pageID); err != nil {
		return nil, err
	}
	return s.repo.NotesByPage(ctx, pageID)
}

func (s *NoteService) Get(ctx context.Context, id int64) (core.Note, error) {
	return s.repo.GetNote(ctx, id)
}

// Create appends a note to the end of its meal group and returns its id.
func (s *NoteService) Create(ctx context.Context, in core.NoteInput) (int64, error) {
	if err := s.check(ctx, in); err != nil {
		return 0, err
	}
	id, err := s.repo.CreateNote(ctx, in)
	if err != nil {
		return 0, err
	}
	slog.DebugContext(ctx, "Note created", "note_id", id, "page_id", in.PageID, "meal_type", in.MealType.String())
	return id, nil
}

// Update rewrites a note. Changing its meal type moves it to the end of the
// new group.
func (s *NoteService) Update(ctx context.Context, id int64, in core.NoteInput) error {
	if _, err := s.repo.GetNote(ctx, id); err != nil {
		return err
	}
	if err := s.check(ctx, in); err != nil {
		return err
	}
	return s.repo.UpdateNote(ctx, id, in)
}

func (s *NoteService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetNote(ctx, id); err != nil {
		return err
	}
	_, err := s.repo.DeleteNotes(ctx, []int64{id})
	return err
}

// DeleteBatch removes the notes. Nothing is deleted unless every id exists.
func (s *NoteService) DeleteBatch(ctx context.Context, ids []int64) error {
	ids, err := uniqueIDs(ids)
	if err != nil {
		return err
	}
	found, err := s.repo.GetNotes(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return core.ErrInvalidIDs
	}
	_, err = s.repo.DeleteNotes(ctx, ids)
	return err
}

// Move places a note at a position inside a meal group of its page.
func (s *NoteService) Move(ctx context.Context, move core.NoteMove) error {
	if err := move.Validate(); err != nil {
		return err
	}
	if err := s.repo.MoveNote(ctx, move); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Note moved", "note_id", move.NoteID, "meal_type", move.MealType.String(), "position", move.Position)
	return nil
}

func (s *NoteService) check(ctx context.Context, in core.NoteInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	_, err := s.repo.GetPage(ctx, in.PageID)
	if err := requireExists(err, "pageId", "Page", in.PageID); err != nil {
		return err
	}
	_, err = s.repo.GetProduct(ctx, in.ProductID)
	return requireExists(err, "productId", "Product", in.ProductID)
}
