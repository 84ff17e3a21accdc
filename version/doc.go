// Package version provides build version information embedding for
// voicekit.
//
// Version and git commit are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/voicekit/version.Version=1.0.0"
package version
