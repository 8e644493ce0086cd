// Package version holds build metadata, set at link time with
// -ldflags "-X github.com/MrSnakeDoc/toolshelf/internal/version.Version=v0.1.0".
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2026-10-15T18:42:00Z
	GoVersion = runtime.Version() // go version
)

// String formats the build metadata on one line.
func String() string {
	return fmt.Sprintf("%s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
