package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/toolshelf/internal/logger"
)

const readyzCheckTimeout = 2 * time.Second

type readyzResponse struct {
	Ready      bool              `json:"ready"`
	Components map[string]string `json:"components"`
}

// Readyz pings every dependency and answers 503 if any is down.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyzResponse{Ready: true, Components: make(map[string]string, len(d.Checks))}

		for _, c := range d.Checks {
			ctx, cancel := context.WithTimeout(r.Context(), readyzCheckTimeout)
			err := c.Ping(ctx)
			cancel()
			if err != nil {
				d.Logger.Warn("readiness check failed", logger.String("component", c.Name), logger.Error(err))
				resp.Ready = false
				resp.Components[c.Name] = "down"
				continue
			}
			resp.Components[c.Name] = "ok"
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
