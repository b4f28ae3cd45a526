// Package version reports the hwnotify release and build metadata.
package version

import (
	_ "embed"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

//go:embed VERSION
var versionFile string

// Set at link time:
//
//	go build -ldflags "-X github.com/leefowlercu/hwnotify/internal/version.gitCommit=abc1234 -X github.com/leefowlercu/hwnotify/internal/version.buildDate=2026-01-10T15:04:05Z"
var (
	gitCommit string
	buildDate string
)

const unknown = "unknown"

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// String formats Info for human-readable display.
func (i Info) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Version:    %s\n", i.Version)
	fmt.Fprintf(&sb, "Git Commit: %s\n", i.GitCommit)
	fmt.Fprintf(&sb, "Build Date: %s\n", i.BuildDate)
	fmt.Fprintf(&sb, "Go:         %s %s", i.GoVersion, i.Platform)
	return sb.String()
}

var (
	infoOnce sync.Once
	info     Info
)

// Get returns the build information. It is resolved once per process.
func Get() Info {
	infoOnce.Do(func() {
		info = resolve(gitCommit, buildDate, debug.ReadBuildInfo)
	})
	return info
}

// UserAgent returns the User-Agent sent to the review and Telegram APIs.
func UserAgent() string {
	i := Get()
	if i.GitCommit == unknown {
		return "hwnotify/" + i.Version
	}
	return fmt.Sprintf("hwnotify/%s (%s)", i.Version, i.GitCommit)
}

// resolve fills Info from linker values, falling back to the VCS stamp
// that go build embeds.
func resolve(commit, date string, readBuildInfo func() (*debug.BuildInfo, bool)) Info {
	i := Info{
		Version:   strings.TrimSpace(versionFile),
		GitCommit: commit,
		BuildDate: date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if i.GitCommit == "" || i.BuildDate == "" {
		revision, modified, vcsTime := vcsStamp(readBuildInfo)
		if i.GitCommit == "" && revision != "" {
			i.GitCommit = revision
			if modified {
				i.GitCommit += "-dirty"
			}
		}
		if i.BuildDate == "" {
			i.BuildDate = vcsTime
		}
	}

	if i.GitCommit == "" {
		i.GitCommit = unknown
	}
	if i.BuildDate == "" {
		i.BuildDate = unknown
	}
	return i
}

func vcsStamp(readBuildInfo func() (*debug.BuildInfo, bool)) (revision string, modified bool, vcsTime string) {
	bi, ok := readBuildInfo()
	if !ok || bi == nil {
		return "", false, ""
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.modified":
			modified = s.Value == "true"
		case "vcs.time":
			vcsTime = s.Value
		}
	}
	return revision, modified, vcsTime
}
