// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags -X. Empty values fall back to the VCS stamp the Go
// toolchain embeds in the binary.
var (
	GitCommit = ""
	GitDirty  = ""
	BuildTime = ""

	// Version is bumped by hand for releases.
	Version = "0.1.0-dev"
)

const unknown = "unknown"

// Build describes the running binary.
type Build struct {
	Version string
	Commit  string
	Dirty   bool
	Time    string
}

// Current returns the build information of the running binary.
func Current() Build {
	build := Build{
		Version: Version,
		Commit:  GitCommit,
		Dirty:   GitDirty == "true",
		Time:    BuildTime,
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if build.Commit == "" && len(setting.Value) >= 7 {
					build.Commit = setting.Value[:7]
				}
			case "vcs.modified":
				if GitDirty == "" {
					build.Dirty = setting.Value == "true"
				}
			case "vcs.time":
				if build.Time == "" {
					build.Time = setting.Value
				}
			}
		}
	}

	if build.Commit == "" {
		build.Commit = unknown
	}
	if build.Time == "" {
		build.Time = unknown
	}
	return build
}

// String formats the build as "<version> (<commit>[-dirty], <time>)".
func (b Build) String() string {
	commit := b.Commit
	if b.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", b.Version, commit, b.Time)
}

// Info is Current().String(), the --version line.
func Info() string { return Current().String() }

// Full adds the Go version and platform to Info.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Print writes "<binary> <Info>" to w.
func Print(w io.Writer, binary string) {
	fmt.Fprintf(w, "%s %s\n", binary, Info())
}
