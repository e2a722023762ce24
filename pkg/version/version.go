// Package version holds the build version of hablago.
package version

// Version is overridden at build time via -ldflags "-X hablago/pkg/version.Version=...".
var Version = "v0.1.0"
