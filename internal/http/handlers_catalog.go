package http

import (
	"net/http"
	"strconv"

	"fooddiary/internal/core"
)

func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	q := NewQueryParams(r)
	filter := core.ProductFilter{
		CategoryID: q.ID("categoryId"),
		Name:       q.String("productSearchName"),
		Paging:     q.Paging(),
	}
	if err := q.Err(); err != nil {
		writeError(w, r, err)
		return
	}

	products, total, err := s.services.Products.Search(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(listResponse[productResponse]{
		Items:      mapSlice(products, newProductResponse),
		TotalCount: total,
	}).Write(w)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	product, err := s.services.Products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(newProductResponse(product)).Write(w)
}

func (s *Server) handleProductDropdown(w http.ResponseWriter, r *http.Request) {
	products, err := s.services.Products.Dropdown(r.Context(), NewQueryParams(r).String("searchName"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(mapSlice(products, newProductResponse)).Write(w)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.services.Products.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/v1/products/"+strconv.FormatInt(id, 10)).
		JSON(idResponse{ID: id}).
		Write(w)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req productRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Products.Update(r.Context(), id, req.input()); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Products.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeleteProducts(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if err := decodeJSON(w, r, s.maxBodyBytes, &ids); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Products.DeleteBatch(r.Context(), ids); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.services.Categories.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(mapSlice(categories, newCategorySummaryResponse)).Write(w)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	category, err := s.services.Categories.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(newCategoryResponse(category)).Write(w)
}

func (s *Server) handleCategoryDropdown(w http.ResponseWriter, r *http.Request) {
	categories, err := s.services.Categories.Dropdown(r.Context(), NewQueryParams(r).String("categoryName"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().JSON(mapSlice(categories, newCategoryResponse)).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.services.Categories.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/v1/categories/"+strconv.FormatInt(id, 10)).
		JSON(idResponse{ID: id}).
		Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Categories.Update(r.Context(), id, req.input()); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.services.Categories.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
