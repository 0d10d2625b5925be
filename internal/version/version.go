// Package version carries the build version, overridable at link time:
//
//	go build -ldflags "-X github.com/shelfbot/shelfbot/internal/version.Version=v1.2.3"
package version

// Version reports "dev" for local builds.
var Version = "dev"
