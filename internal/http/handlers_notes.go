package http

import (
	"net/http"
	"strconv"

	"fooddiary/internal/core"
)

func (s *Server) handleSearchNotes(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParams(r)
	pageID := q.ID("pageId")
	if err := q.Err(); err != nil {
		writeError(w, r, err)
		return
	}
	if pageID == 0 {
		writeError(w, r, core.NewValidationError("pageId", "Page is required"))
		return
	}
	notes, err := s.services.Notes.Search(r.Context(), pageID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(mapSlice(notes, newNoteResponse)).Write(w)
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	note, err := s.services.Notes.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(newNoteResponse(note)).Write(w)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.services.Notes.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/v1/notes/"+strconv.FormatInt(id, 10)).
		JSON(idResponse{ID: id}).
		Write(w)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req noteRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Notes.Update(r.Context(), id, req.input()); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Notes.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeleteNotes(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if err := decodeJSON(w, r, s.maxBodyBytes, &ids); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Notes.DeleteBatch(r.Context(), ids); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleMoveNote(w http.ResponseWriter, r *http.Request) {
	var req noteMoveRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Notes.Move(r.Context(), core.NoteMove(req)); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
