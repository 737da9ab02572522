// Package version holds build metadata injected via ldflags.
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build metadata for the version command and startup log.
func String() string {
	return fmt.Sprintf("docgate %s (commit %s, built %s)", Version, Commit, Date)
}
