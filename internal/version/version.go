// Package version carries build information stamped in via ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time via -ldflags.
var (
	// Version is the semantic version, when built from a tag
	Version = "dev"

	// CommitHash is the git commit the binary was built from
	CommitHash = "unknown"
)

// String returns a human-readable version line.
func String() string {
	return fmt.Sprintf("luma-ls %s (%s, %s, %s/%s)",
		Version, CommitHash, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
