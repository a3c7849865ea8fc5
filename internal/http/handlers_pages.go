package http

import (
	"net/http"
	"strconv"

	"fooddiary/internal/core"
)

func (s *Server) handleSearchPages(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParams(r)
	filter := core.PageFilter{
		Start:  q.Date("startDate"),
		End:    q.Date("endDate"),
		Sort:   q.SortOrder("sortOrder"),
		Paging: q.Paging(),
	}
	if err := q.Err(); err != nil {
		writeError(w, r, err)
		return
	}

	pages, total, err := s.services.Pages.Search(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(listResponse[pageSummaryResponse]{
		Items: mapSlice(pages, func(p core.PageSummary) pageSummaryResponse {
			return pageSummaryResponse(p)
		}),
		TotalCount: total,
	}).Write(w)
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.services.Pages.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(newPageViewResponse(view)).Write(w)
}

func (s *Server) handlePageTable(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.services.Pages.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	table, err := s.services.Pages.Table(r.Context(), view.Current.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(newTableResponse(table)).Write(w)
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.services.Pages.Create(r.Context(), core.PageInput{Date: req.Date})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/v1/pages/"+strconv.FormatInt(id, 10)).
		JSON(idResponse{ID: id}).
		Write(w)
}

func (s *Server) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req pageRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Pages.Update(r.Context(), id, core.PageInput{Date: req.Date}); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeletePages(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if err := decodeJSON(w, r, s.maxBodyBytes, &ids); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Pages.DeleteBatch(r.Context(), ids); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleCaloriesHistory(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParams(r)
	rng := q.DateRange()
	if err := q.Err(); err != nil {
		writeError(w, r, err)
		return
	}
	history, err := s.services.Pages.CaloriesHistory(r.Context(), rng)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(mapSlice(history, func(d core.DailyCalories) caloriesResponse {
		return caloriesResponse(d)
	})).Write(w)
}
