// Package version carries build metadata injected with -ldflags.
package version

import "fmt"

var (
	// Version is the semantic version of the binary.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// String renders the build metadata on one line per field.
func String() string {
	return fmt.Sprintf("jackpotwatch %s\ncommit: %s\nbuilt: %s\n", Version, Commit, BuildDate)
}
