package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	// These variables are set during build time
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// BuildInfo contains build and runtime information
type BuildInfo struct {
	Version   string `json:"version"`
	SemVer    string `json:"semver"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`

	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`

	BuildDeps []Module `json:"build_deps,omitempty"`
}

// Module represents a Go module dependency
type Module struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// GetBuildInfo returns build information for the version command
func GetBuildInfo() BuildInfo {
	var buildDeps []Module
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			buildDeps = append(buildDeps, Module{
				Path:    dep.Path,
				Version: dep.Version,
			})
		}
	}

	return BuildInfo{
		Version:   Version,
		SemVer:    strings.Split(Version, "-")[0],
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		BuildDeps: buildDeps,
	}
}

// String returns a single-line version description
func (b BuildInfo) String() string {
	return fmt.Sprintf("trainer %s (%s, %s, built %s)",
		b.Version, b.GitCommit, b.GoVersion, b.BuildDate)
}
