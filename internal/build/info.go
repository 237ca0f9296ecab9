// Package build exposes the version and build metadata stamped into the
// chatcore binary, either by the linker at release time or from the
// bundled VERSION file during development.
package build

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"
	"time"
)

//go:embed VERSION
var rawVersion string

// Set via -ldflags at release time; empty in development builds.
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
)

var startTime = time.Now()

func init() {
	if Version == "" {
		Version = strings.TrimSpace(rawVersion)
	}
}

// Info is the build metadata reported by the build-info subcommand.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Uptime    string `json:"uptime"`
}

// GetBuildInfo returns the metadata for the running binary.
func GetBuildInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	}
}

func (i Info) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Version: %s\n", i.Version)

	if i.Commit != "" {
		fmt.Fprintf(&sb, "Commit: %s\n", i.Commit)
	}

	if i.BuildTime != "" {
		fmt.Fprintf(&sb, "Build Time: %s\n", i.BuildTime)
	}

	fmt.Fprintf(&sb, "Go Version: %s\n", i.GoVersion)
	fmt.Fprintf(&sb, "Platform: %s\n", i.Platform)
	fmt.Fprintf(&sb, "Uptime: %s\n", i.Uptime)

	return sb.String()
}
