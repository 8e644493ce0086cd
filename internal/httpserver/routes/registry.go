package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

var registry []entry

// Register a registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// Called once from server.New()
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		sub := r.With(e.mws...) // apply per-route middlewares
		e.reg(sub, d)
	}
}

// catalog returns the middlewares shared by the CRUD routes.
func catalog(d deps.Deps) []Middleware {
	return append([]Middleware{mw.EnforceHost(d.AllowedHosts, d.Logger)}, timeout(d.RequestTimeout)...)
}

// timeout is empty for a non-positive budget.
func timeout(budget time.Duration) []Middleware {
	if budget <= 0 {
		return nil
	}
	return []Middleware{middleware.Timeout(budget)}
}
