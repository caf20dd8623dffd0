// Package version holds build metadata injected with -ldflags.
package version

// Set at build time, e.g.
//
//	go build -ldflags "-X github.com/doeshing/typecopilot/internal/version.Version=v0.3.0"
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)
