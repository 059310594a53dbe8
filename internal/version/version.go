// Package version carries the refnum build identity, stamped into release
// binaries and reported by "refnum --version".
package version

// Set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
