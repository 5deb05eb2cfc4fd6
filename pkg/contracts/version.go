package contracts

import (
	"fmt"
	"runtime"
	"strings"
)

const (
	// Version is the current version of the tally
	Version = "0.3.0"

	// OutputFormatVersion identifies the 16-byte result encoding. Nodes must
	// agree on it byte for byte.
	OutputFormatVersion = "u128le-v1"
)

// Release channels
const (
	ChannelStable      = "stable"
	ChannelPrerelease  = "prerelease"
	ChannelDevelopment = "development"
)

var (
	// BuildTime is set during build using ldflags
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags
	GitCommit = "unknown"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version      string `json:"version"`
	Channel      string `json:"channel"`
	OutputFormat string `json:"output_format"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	Platform     string `json:"platform"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		Channel:      Channel(),
		OutputFormat: OutputFormatVersion,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Channel reports the release channel of this build.
func Channel() string {
	return channelOf(Version)
}

// channelOf classifies a semantic version: a "-suffix" marks a prerelease and
// a 0.x major is still in development.
func channelOf(v string) string {
	switch {
	case strings.Contains(v, "-"):
		return ChannelPrerelease
	case strings.HasPrefix(v, "0."):
		return ChannelDevelopment
	default:
		return ChannelStable
	}
}

// GetVersionString returns a formatted version string
func GetVersionString() string {
	return fmt.Sprintf("oracle-tally v%s", Version)
}

// GetFullVersionString returns a detailed version string
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf(
		"%s [%s] (output: %s, built: %s, commit: %s, go: %s, %s)",
		GetVersionString(),
		info.Channel,
		info.OutputFormat,
		info.BuildTime,
		info.GitCommit,
		info.GoVersion,
		info.Platform,
	)
}
