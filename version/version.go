// Package version reports the build version of the lesstokens binary and
// library. Values are injected with -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/lesstokens/version.Version=1.2.0 \
//	  -X github.com/kbukum/lesstokens/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Unset values fall back to the module build info.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// Set at build time.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is the build description served by the gateway and printed by the CLI.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
	GoVersion string `json:"goVersion"`
	Dirty     bool   `json:"dirty,omitempty"`
}

// IsRelease reports whether the build carries a release version.
func (i *Info) IsRelease() bool {
	return i.Version != "dev" && !i.Dirty && !strings.Contains(i.Version, "dirty")
}

// GetVersionInfo combines the injected values with debug.BuildInfo.
func GetVersionInfo() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = strings.TrimPrefix(bi.Main.Version, "v")
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = shortCommit(s.Value)
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// Short returns "<version>[-<commit>][-dirty]".
func Short() string {
	return GetVersionInfo().String()
}

// UserAgent is sent with compression requests.
func UserAgent() string {
	return "lesstokens-go/" + GetVersionInfo().Version
}

func (i *Info) String() string {
	s := i.Version
	if i.GitCommit != "" {
		s += "-" + i.GitCommit
	}
	if i.Dirty {
		s += "-dirty"
	}
	return s
}

// Full adds the Go version and build time to Short.
func Full() string {
	info := GetVersionInfo()
	s := fmt.Sprintf("lesstokens %s (%s)", info.String(), info.GoVersion)
	if info.BuildTime != "" {
		s += " built " + info.BuildTime
	}
	return s
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
