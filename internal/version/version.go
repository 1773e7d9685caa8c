// Package version reports which build of accent is running.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/jmylchreest/accent/internal/version.Version=...".
// Commit and Date fall back to the VCS stamp Go embeds in module builds.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Build describes the running binary.
type Build struct {
	Version  string
	Commit   string
	Date     string
	Go       string
	Platform string
}

// Current returns the build description, filling gaps from the embedded
// build info.
func Current() Build {
	b := Build{
		Version:  Version,
		Commit:   Commit,
		Date:     Date,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = setting.Value
			}
		case "vcs.time":
			if b.Date == "" {
				b.Date = setting.Value
			}
		}
	}
	return b
}

// String formats b for the version command.
func (b Build) String() string {
	if b.Commit == "" {
		return fmt.Sprintf("accent version %s (%s, %s)", b.Version, b.Go, b.Platform)
	}
	commit := b.Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	date := b.Date
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("accent version %s (commit: %s, built: %s, %s, %s)", b.Version, commit, date, b.Go, b.Platform)
}

// String returns the long version line.
func String() string {
	return Current().String()
}

// Short returns just the version.
func Short() string {
	return Current().Version
}
