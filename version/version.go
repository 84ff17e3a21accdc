package version

import (
	"fmt"
	"runtime/debug"
)

// These variables are set at build time using -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
)

// Short returns a compact version string such as "1.2.0-a1b2c3d".
// When ldflags were not set, it falls back to VCS metadata embedded
// by the Go toolchain.
func Short() string {
	commit := GitCommit
	if commit == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					commit = setting.Value
					break
				}
			}
		}
	}
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if commit == "" {
		return Version
	}
	return fmt.Sprintf("%s-%s", Version, commit)
}

// UserAgent returns the HTTP User-Agent string for outbound requests.
func UserAgent() string {
	return "voicekit/" + Short()
}
