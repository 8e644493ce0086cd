package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
)

type createCollectionRequest struct {
	Name    string   `json:"name"`
	ToolIDs []string `json:"toolIds"`
}

func ListCollections(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		colls, err := d.Store.ListCollections(r.Context())
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, colls)
	}
}

func GetCollection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coll, err := d.Store.GetCollection(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, coll)
	}
}

func CreateCollection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCollectionRequest
		if err := decode(w, r, &req); err != nil {
			fail(w, http.StatusBadRequest, TypeBadRequest, err.Error())
			return
		}
		coll, err := d.Store.CreateCollection(r.Context(), domain.Collection{Name: req.Name, ToolIDs: req.ToolIDs})
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusCreated, coll)
	}
}

func UpdateCollection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.CollectionPatch
		if err := decode(w, r, &patch); err != nil {
			fail(w, http.StatusBadRequest, TypeBadRequest, err.Error())
			return
		}
		coll, err := d.Store.UpdateCollection(r.Context(), chi.URLParam(r, "id"), patch)
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, coll)
	}
}

func DeleteCollection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.DeleteCollection(r.Context(), chi.URLParam(r, "id")); err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, nil)
	}
}

func AddToCollection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coll, err := d.Store.AddToCollection(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "toolId"))
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, coll)
	}
}

func RemoveFromCollection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coll, err := d.Store.RemoveFromCollection(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "toolId"))
		if err != nil {
			storeError(w, r, d.Logger, err)
			return
		}
		ok(w, http.StatusOK, coll)
	}
}
