// Package version provides build-time version information.
package version

import "fmt"

// Set at build time:
//
//	go build -ldflags "-X github.com/javanstorm/gcpvm/internal/version.Version=1.0.0 \
//	                   -X github.com/javanstorm/gcpvm/internal/version.Commit=$(git rev-parse HEAD) \
//	                   -X github.com/javanstorm/gcpvm/internal/version.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String formats the build information on one line.
func String() string {
	return fmt.Sprintf("gcpvm %s (commit %s, built %s)", Version, Commit, BuildDate)
}
