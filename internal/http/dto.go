package http

import (
	"time"

	"fooddiary/internal/core"
	"fooddiary/internal/export"
	"fooddiary/internal/notestable"
	"fooddiary/internal/services"
)

// Request bodies.
type (
	categoryRequest struct {
		Name string `json:"name"`
	}

	productRequest struct {
		Name            string `json:"name"`
		CaloriesCost    int    `json:"caloriesCost"`
		DefaultQuantity int    `json:"defaultQuantity"`
		CategoryID      int64  `json:"categoryId"`
	}

	pageRequest struct {
		Date core.Date `json:"date"`
	}

	noteRequest struct {
		PageID          int64         `json:"pageId"`
		MealType        core.MealType `json:"mealType"`
		ProductID       int64         `json:"productId"`
		ProductQuantity int           `json:"productQuantity"`
	}

	noteMoveRequest struct {
		NoteID   int64         `json:"noteId"`
		MealType core.MealType `json:"mealType"`
		Position int           `json:"position"`
	}

	sheetsExportRequest struct {
		StartDate core.Date `json:"startDate"`
		EndDate   core.Date `json:"endDate"`
	}
)

func (r categoryRequest) input() core.CategoryInput {
	return core.CategoryInput{Name: sanitizeInput(r.Name)}
}

func (r productRequest) input() core.ProductInput {
	return core.ProductInput{
		Name:            sanitizeInput(r.Name),
		CaloriesCost:    r.CaloriesCost,
		DefaultQuantity: r.DefaultQuantity,
		CategoryID:      r.CategoryID,
	}
}

func (r noteRequest) input() core.NoteInput {
	return core.NoteInput{
		PageID:          r.PageID,
		MealType:        r.MealType,
		ProductID:       r.ProductID,
		ProductQuantity: r.ProductQuantity,
	}
}

// Response bodies.
type (
	idResponse struct {
		ID int64 `json:"id"`
	}

	listResponse[T any] struct {
		Items      []T `json:"items"`
		TotalCount int `json:"totalCount"`
	}

	categoryResponse struct {
		ID            int64  `json:"id"`
		Name          string `json:"name"`
		CountProducts *int   `json:"countProducts,omitempty"`
	}

	productResponse struct {
		ID              int64             `json:"id"`
		Name            string            `json:"name"`
		CaloriesCost    int               `json:"caloriesCost"`
		DefaultQuantity int               `json:"defaultQuantity"`
		CategoryID      int64             `json:"categoryId"`
		Category        *categoryResponse `json:"category,omitempty"`
	}

	pageSummaryResponse struct {
		ID            int64     `json:"id"`
		Date          core.Date `json:"date"`
		CountNotes    int       `json:"countNotes"`
		CountCalories int       `json:"countCalories"`
	}

	pageLinkResponse struct {
		ID   int64     `json:"id"`
		Date core.Date `json:"date"`
	}

	pageResponse struct {
		ID            int64          `json:"id"`
		Date          core.Date      `json:"date"`
		Notes         []noteResponse `json:"notes"`
		TotalCalories int            `json:"totalCalories"`
	}

	pageViewResponse struct {
		Current  pageResponse      `json:"currentPage"`
		Previous *pageLinkResponse `json:"previousPage"`
		Next     *pageLinkResponse `json:"nextPage"`
	}

	noteResponse struct {
		ID              int64            `json:"id"`
		PageID          int64            `json:"pageId"`
		MealType        core.MealType    `json:"mealType"`
		MealName        string           `json:"mealName"`
		ProductID       int64            `json:"productId"`
		Product         *productResponse `json:"product,omitempty"`
		ProductQuantity int              `json:"productQuantity"`
		DisplayOrder    int              `json:"displayOrder"`
		Calories        int              `json:"calories"`
	}

	caloriesResponse struct {
		Date     core.Date `json:"date"`
		Calories int       `json:"calories"`
	}

	cellResponse struct {
		Text      string `json:"text"`
		Bold      bool   `json:"bold,omitempty"`
		Italic    bool   `json:"italic,omitempty"`
		MergeDown int    `json:"mergeDown,omitempty"`
	}

	groupResponse struct {
		MealType core.MealType `json:"mealType"`
		Name     string        `json:"name"`
		FirstRow int           `json:"firstRow"`
		Count    int           `json:"count"`
		Calories int           `json:"calories"`
	}

	tableResponse struct {
		PageID        int64                                  `json:"pageId"`
		Date          core.Date                              `json:"date"`
		Header        [notestable.ColumnCount]string         `json:"header"`
		Rows          [][notestable.ColumnCount]cellResponse `json:"rows"`
		Groups        []groupResponse                        `json:"groups"`
		TotalCalories int                                    `json:"totalCalories"`
	}

	jobCreatedResponse struct {
		JobID string `json:"jobId"`
	}

	jobResponse struct {
		JobID     string    `json:"jobId"`
		Kind      string    `json:"kind"`
		Status    string    `json:"status"`
		StartDate core.Date `json:"startDate"`
		EndDate   core.Date `json:"endDate"`
		Attempts  int       `json:"attempts"`
		LastError string    `json:"lastError,omitempty"`
		ResultRef string    `json:"resultRef,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	importResponse struct {
		PagesCreated      int `json:"pagesCreated"`
		PagesReplaced     int `json:"pagesReplaced"`
		NotesCreated      int `json:"notesCreated"`
		ProductsCreated   int `json:"productsCreated"`
		CategoriesCreated int `json:"categoriesCreated"`
	}
)

func newCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name}
}

func newCategorySummaryResponse(c core.CategorySummary) categoryResponse {
	resp := newCategoryResponse(c.Category)
	count := c.CountProducts
	resp.CountProducts = &count
	return resp
}

func newProductResponse(p core.Product) productResponse {
	resp := productResponse{
		ID:              p.ID,
		Name:            p.Name,
		CaloriesCost:    p.CaloriesCost,
		DefaultQuantity: p.DefaultQuantity,
		CategoryID:      p.CategoryID,
	}
	if p.Category != nil {
		c := newCategoryResponse(*p.Category)
		resp.Category = &c
	}
	return resp
}

func newNoteResponse(n core.Note) noteResponse {
	resp := noteResponse{
		ID:              n.ID,
		PageID:          n.PageID,
		MealType:        n.MealType,
		MealName:        n.MealType.String(),
		ProductID:       n.ProductID,
		ProductQuantity: n.ProductQuantity,
		DisplayOrder:    n.DisplayOrder,
		Calories:        int(n.Calories()),
	}
	if n.Product != nil {
		p := newProductResponse(*n.Product)
		resp.Product = &p
	}
	return resp
}

func newPageLinkResponse(p *core.Page) *pageLinkResponse {
	if p == nil {
		return nil
	}
	return &pageLinkResponse{ID: p.ID, Date: p.Date}
}

func newPageViewResponse(v services.PageView) pageViewResponse {
	return pageViewResponse{
		Current: pageResponse{
			ID:            v.Current.ID,
			Date:          v.Current.Date,
			Notes:         mapSlice(v.Current.Notes, newNoteResponse),
			TotalCalories: v.Current.TotalCalories(),
		},
		Previous: newPageLinkResponse(v.Previous),
		Next:     newPageLinkResponse(v.Next),
	}
}

func newTableResponse(t export.PageTable) tableResponse {
	resp := tableResponse{
		PageID:        t.PageID,
		Date:          t.Date,
		Header:        notestable.Header,
		Rows:          make([][notestable.ColumnCount]cellResponse, len(t.Layout.Rows)),
		Groups:        make([]groupResponse, len(t.Layout.Groups)),
		TotalCalories: t.TotalCalories,
	}
	for i, row := range t.Layout.Rows {
		for c, cell := range row.Cells {
			resp.Rows[i][c] = cellResponse{Text: cell.Text, Bold: cell.Bold, Italic: cell.Italic, MergeDown: cell.MergeDown}
		}
	}
	for i, g := range t.Layout.Groups {
		resp.Groups[i] = groupResponse{MealType: g.MealType, Name: g.Name, FirstRow: g.FirstRow, Count: g.Count, Calories: g.Calories}
	}
	return resp
}

func newJobResponse(j core.ExportJob) jobResponse {
	return jobResponse{
		JobID:     j.ID,
		Kind:      string(j.Kind),
		Status:    string(j.Status),
		StartDate: j.Range.Start,
		EndDate:   j.Range.End,
		Attempts:  j.Attempts,
		LastError: j.LastError,
		ResultRef: j.ResultRef,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

func newImportResponse(r services.ImportResult) importResponse {
	return importResponse(r)
}

// mapSlice converts every element of in, returning an empty (not nil) slice.
func mapSlice[T, R any](in []T, f func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
