package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
)

type createCategoryRequest struct {
	Name      string `json:"name"`
	Collapsed bool   `json:"collapsed"`
	SortOrder int    `json:"sortOrder"`
}

type reorderRequest struct {
	ToolIDs []string `json:"toolIds"`
}

func ListCategories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := d.Store.ListCategories(r.Context())
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, cats)
	}
}

func GetCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cat, err := d.Store.GetCategory(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, cat)
	}
}

func CreateCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCategoryRequest
		if err := decode(w, r, &req); err != nil {
			fail(w, http.StatusBadRequest, TypeBadRequest, err.Error())
			return
		}
		cat, err := d.Store.CreateCategory(r.Context(), domain.Category{
			Name:      req.Name,
			Collapsed: req.Collapsed,
			SortOrder: req.SortOrder,
		})
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusCreated, cat)
	}
}

func UpdateCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.CategoryPatch
		if err := decode(w, r, &patch); err != nil {
			fail(w, http.StatusBadRequest, TypeBadRequest, err.Error())
			return
		}
		cat, err := d.Store.UpdateCategory(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, cat)
	}
}

// DeleteCategory honors ?policy=cascade|reject, defaulting to reject.
func DeleteCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		policy, err := store.ParsePolicy(r.URL.Query().Get("policy"))
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		if err := d.Store.DeleteCategory(r.Context(), chi.URLParam(r, "id"), policy); err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, nil)
	}
}

func ReorderCategory(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := decode(w, r, &req); err != nil {
			fail(w, http.StatusBadRequest, TypeBadRequest, err.Error())
			return
		}
		cat, err := d.Store.Reorder(r.Context(), chi.URLParam(r, "id"), req.ToolIDs)
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, cat)
	}
}
