// Package version holds the build identity of verus-etags.
package version

import "runtime/debug"

// Overridden at build time:
// go build -ldflags "-X verus-etags/internal/version.Version=1.0.1 -X verus-etags/internal/version.Commit=abc123"
var (
	// Version is the semantic version of verus-etags
	Version = "1.0.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when one is known.
func Info() string {
	commit := Commit
	if commit == "unknown" {
		commit = vcsRevision()
	}
	if len(commit) > 7 {
		return Version + " (" + commit[:7] + ")"
	}
	return Version
}

// CacheKey identifies the tag extraction rules of this build. Cached tags
// recorded under a different key are discarded.
func CacheKey() string {
	return "verus-etags/" + Version
}

// vcsRevision reads the revision stamped by the go tool, if any.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return "unknown"
}
