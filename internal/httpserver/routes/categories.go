package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/handlers"
)

func init() { Register(registerCategories) }

func registerCategories(r chi.Router, d deps.Deps) {
	r.Route("/categories", func(r chi.Router) {
		r.Use(catalog(d)...)
		r.Get("/", handlers.ListCategories(d))
		r.Post("/", handlers.CreateCategory(d))
		r.Get("/{id}", handlers.GetCategory(d))
		r.Patch("/{id}", handlers.UpdateCategory(d))
		r.Delete("/{id}", handlers.DeleteCategory(d))
		r.Put("/{id}/order", handlers.ReorderCategory(d))
	})
}
