package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/handlers"
)

func init() { Register(registerTools) }

func registerTools(r chi.Router, d deps.Deps) {
	r.Route("/tools", func(r chi.Router) {
		r.Use(catalog(d)...)
		r.Get("/", handlers.ListTools(d))
		r.Post("/", handlers.CreateTool(d))
		r.Get("/{id}", handlers.GetTool(d))
		r.Patch("/{id}", handlers.UpdateTool(d))
		r.Delete("/{id}", handlers.DeleteTool(d))
		r.Post("/{id}/move", handlers.MoveTool(d))
	})
}
