// Package version holds the application version.
package version

// Version is the current release, overridable at build time with
// -ldflags "-X github.com/vzwork/locus/internal/version.Version=...".
var Version = "1.0.0"
