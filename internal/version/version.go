// Package version carries build metadata injected with -ldflags.
package version

import "fmt"

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/docwatch/internal/version.Version=v0.3.0".
var Version = "unknown"

// Build metadata, also set through -ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version with its commit and build time.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
