package mediameta

import "runtime"

// Version is the semantic version of the mediameta library.
const Version = "0.3.0"

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
}

// GetVersionInfo returns build information. GitCommit and BuildTime are
// set at build time:
//
//	go build -ldflags="-X github.com/simonhull/mediameta.gitCommit=$(git rev-parse HEAD) \
//	  -X github.com/simonhull/mediameta.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/mediameta
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// Variables populated at build time via -ldflags.
var (
	gitCommit = "unknown"
	buildTime = "unknown"
)
