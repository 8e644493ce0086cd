package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/handlers"
)

func init() { Register(registerCollections) }

func registerCollections(r chi.Router, d deps.Deps) {
	r.Route("/collections", func(r chi.Router) {
		r.Use(catalog(d)...)
		r.Get("/", handlers.ListCollections(d))
		r.Post("/", handlers.CreateCollection(d))
		r.Get("/{id}", handlers.GetCollection(d))
		r.Patch("/{id}", handlers.UpdateCollection(d))
		r.Delete("/{id}", handlers.DeleteCollection(d))
		r.Post("/{id}/tools/{toolId}", handlers.AddToCollection(d))
		r.Delete("/{id}/tools/{toolId}", handlers.RemoveFromCollection(d))
	})
}
