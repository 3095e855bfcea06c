package version

import "fmt"

// ProductName is the human-readable name printed by the version command.
const ProductName = "The Package Index"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.4.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Banner returns the one-line product banner, e.g. "The Package Index v0.4.0".
func Banner() string {
	return fmt.Sprintf("%s v%s", ProductName, Version)
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
