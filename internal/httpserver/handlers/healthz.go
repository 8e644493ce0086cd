package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/toolshelf/internal/httpserver/deps"
)

type build struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status     string `json:"status"`
	Uptime     string `json:"uptime"`
	Build      build  `json:"build"`
	Extraction string `json:"extraction"`
}

// Healthz reports liveness. It checks no dependencies; see Readyz.
func Healthz(d deps.Deps) http.HandlerFunc {
	extraction := "unconfigured"
	if d.Model != "" {
		extraction = d.Model
	}
	b := build{Version: d.Version, Commit: d.Commit, BuildDate: d.BuildDate, GoVersion: d.GoVersion}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:     "ok",
			Uptime:     time.Since(d.StartTime).Truncate(time.Second).String(),
			Build:      b,
			Extraction: extraction,
		})
	}
}
