package main

import "github.com/fzft/go-resp3/cmd"

// Set with -ldflags "-X main.gitSHA1=... -X main.gitDirty=...".
// Unset values stay "unknown" and are left out of the version line.
var (
	gitSHA1   string = "unknown"
	gitDirty  string = "unknown"
	buildID   string = "unknown"
	buildDate string = "unknown"
)

func buildInfo() cmd.BuildInfo {
	return cmd.BuildInfo{
		GitSHA1:   gitSHA1,
		GitDirty:  gitDirty,
		BuildID:   buildID,
		BuildDate: buildDate,
	}
}
