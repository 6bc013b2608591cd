// Package version exposes build-time metadata for the build-info binary
// itself.
package version

import "fmt"

var (
	// Version is the semantic version of the tool.
	Version = "1.0.0"
	// GitCommit is injected via -ldflags at build time.
	GitCommit = "none"
	// BuildDate is an RFC3339 timestamp injected at build time.
	BuildDate = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("build-info %s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}
