package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/mw"
)

func init() { Register(registerAnalyze) }

func registerAnalyze(r chi.Router, d deps.Deps) {
	mws := []Middleware{mw.EnforceHost(d.AllowedHosts, d.Logger)}
	if d.AnalyzeRate > 0 {
		mws = append(mws, mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.AnalyzeRate,
			RefillPerIPPerMin: d.AnalyzeRate,
			MaxEntries:        10_000,
			TrustProxy:        d.TrustProxy,
		}))
	}
	mws = append(mws, timeout(d.AnalyzeTimeout)...)
	r.With(mws...).Post("/analyze-url", handlers.Analyze(d))
}
