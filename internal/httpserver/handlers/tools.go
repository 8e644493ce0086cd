package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
)

type moveToolRequest struct {
	FromCategoryID string `json:"fromCategoryId"`
	ToCategoryID   string `json:"toCategoryId"`
	Position       *int   `json:"position,omitempty"` // nil appends
}

func ListTools(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tools, err := d.Store.ListTools(r.Context(), store.ToolFilter{
			CategoryID: r.URL.Query().Get("categoryId"),
			Query:      r.URL.Query().Get("q"),
		})
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, tools)
	}
}

func GetTool(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := d.Store.GetTool(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, t)
	}
}

// CreateTool files a new tool at the end of its category. Client-supplied
// ids are ignored.
func CreateTool(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t domain.Tool
		if err := decode(w, r, &t); err != nil {
			fail(w, http.StatusBadRequest, TypeBadRequest, err.Error())
			return
		}
		created, err := d.Store.CreateTool(r.Context(), t)
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusCreated, created)
	}
}

func UpdateTool(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.ToolPatch
		if err := decode(w, r, &patch); err != nil {
			fail(w, http.StatusBadRequest, TypeBadRequest, err.Error())
			return
		}
		t, err := d.Store.UpdateTool(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, t)
	}
}

func MoveTool(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moveToolRequest
		if err := decode(w, r, &req); err != nil {
			fail(w, http.StatusBadRequest, TypeBadRequest, err.Error())
			return
		}
		position := -1
		if req.Position != nil {
			position = *req.Position
		}
		t, err := d.Store.MoveTool(r.Context(), chi.URLParam(r, "id"), req.FromCategoryID, req.ToCategoryID, position)
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, t)
	}
}

func DeleteTool(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.DeleteTool(r.Context(), chi.URLParam(r, "id")); err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, nil)
	}
}
