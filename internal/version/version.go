// Package version provides the version of tapeview.
package version

// Version is the version of tapeview. Set by the build process.
var Version = "unknown"
