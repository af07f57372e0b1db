// Package version exposes build metadata of appci-number.
//
// Version, Commit and BuildTime are injected with -ldflags "-X ..." and keep
// placeholder values in local builds.
package version
