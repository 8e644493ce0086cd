package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/toolshelf/internal/logger"
	"github.com/MrSnakeDoc/toolshelf/internal/pipeline"
	"github.com/MrSnakeDoc/toolshelf/internal/store"
)

// Analyzer runs the URL analysis pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, rawURL string) (*pipeline.Result, error)
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	AllowedHosts   []string      // Host headers allowed to access the API
	AllowedCIDRS   []string      // networks allowed to reach /readyz
	TrustProxy     bool          // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RequestTimeout time.Duration // budget for catalog routes
	AnalyzeTimeout time.Duration // budget for one analysis
	AnalyzeRate    int           // analyses per client per minute, 0 = unlimited
	Store          store.Store   // catalog
	Analyzer       Analyzer      // POST /analyze-url
	Model          string        // extraction model, empty when unconfigured
	Checks         []Check       // readiness probes
}
