// Package version holds the build version string.
package version

// Version is the release version, overridden at build time via
// -ldflags "-X github.com/ragmcp/ragmcp/pkg/version.Version=...".
var Version = "0.1.0-dev"
