package http

import (
	"errors"
	"net/http"

	"fooddiary/internal/core"
	"fooddiary/internal/export"
)

// importFormMemory is how much of an upload ParseMultipartForm keeps in memory.
const importFormMemory = 1 << 20

func (s *Server) handleExport(format export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := NewQueryParams(r)
		rng := q.DateRange()
		if err := q.Err(); err != nil {
			writeError(w, r, err)
			return
		}
		file, err := s.services.Exports.Export(r.Context(), rng, format)
		if err != nil {
			writeError(w, r, err)
			return
		}
		NewJSONResponse().Attachment(file.Name, file.ContentType, file.Data).Write(w)
	}
}

func (s *Server) handleRequestSheetsExport(w http.ResponseWriter, r *http.Request) {
	var req sheetsExportRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.services.Exports.RequestSheetsExport(r.Context(), core.DateRange{Start: req.StartDate, End: req.EndDate})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusAccepted).
		Header("Location", "/api/v1/exports/jobs/"+id).
		JSON(jobCreatedResponse{JobID: id}).
		Write(w)
}

func (s *Server) handleExportJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.services.Exports.JobStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(newJobResponse(job)).Write(w)
}

func (s *Server) handleImportJSON(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := r.ParseMultipartForm(importFormMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, err)
			return
		}
		writeError(w, r, core.NewValidationError("importFile", "Expected a multipart form with an import file"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, _, err := r.FormFile("importFile")
	if err != nil {
		writeError(w, r, core.NewValidationError("importFile", "Import file is required"))
		return
	}
	defer file.Close()

	result, err := s.services.Imports.ImportJSON(r.Context(), file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(newImportResponse(result)).Write(w)
}
