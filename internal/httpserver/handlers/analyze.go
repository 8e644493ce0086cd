package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
	"github.com/MrSnakeDoc/toolshelf/internal/pipeline"
)

type analyzeRequest struct {
	URL string `json:"url"`
}

// Analyze proposes a catalog record for a URL. Pipeline failures are
// reported with HTTP 200 and success=false so clients can fall back to
// manual entry.
func Analyze(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := decode(w, r, &req); err != nil {
			fail(w, http.StatusBadRequest, TypeBadRequest, err.Error())
			return
		}

		res, err := d.Analyzer.Analyze(r.Context(), req.URL)
		if err != nil {
			var f *pipeline.Failure
			if !errors.As(err, &f) {
				storeError(w, r, d.Logger, err)
				return
			}
			d.Logger.Warn("analysis failed",
				logger.String("url", req.URL),
				logger.String("error_type", string(f.Kind)),
				logger.Error(err))
			fail(w, http.StatusOK, string(f.Kind), f.Message)
			return
		}

		writeJSON(w, http.StatusOK, envelope{Success: true, Data: res.Record, Scraped: res.Scraped})
	}
}
