// Package version enables setting build-time version using ldflags.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	// ProjectName is the canonical project name.
	ProjectName = "teamdash"
	// Version specifies Semantic versioning increment (MAJOR.MINOR.PATCH), set by ldflags.
	Version = "v0.0.0"
	// GitCommit specifies the git commit sha, set by ldflags.
	GitCommit = ""
	// BuildMeta specifies release type (dev,rc1,beta,etc), set by ldflags.
	BuildMeta = ""

	runtimeVersion = runtime.Version()
)

// FullVersion returns a version string such as v1.2.3-rc1+abc123.
func FullVersion() string {
	var sb strings.Builder
	sb.WriteString(Version)
	if BuildMeta != "" {
		sb.WriteString("-" + BuildMeta)
	}
	if GitCommit != "" {
		sb.WriteString("+" + GitCommit)
	}
	return sb.String()
}

// UserAgent returns the User-Agent sent on outbound requests.
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s; %s/%s)", ProjectName, FullVersion(), runtimeVersion, runtime.GOOS, runtime.GOARCH)
}
