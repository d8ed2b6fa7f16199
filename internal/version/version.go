// Package version holds build metadata, overridden at link time.
package version

// Version is the release version, set via -ldflags at build time.
var Version = "dev"
