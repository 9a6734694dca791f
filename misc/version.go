// Package misc keeps small helpers which have no better home.
package misc

import (
	"runtime/debug"
)

const appName = "cssv"

// GetAppName returns short program name used for logging and file naming.
func GetAppName() string {
	return appName
}

// GetVersion returns module version recorded by the toolchain.
func GetVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

// GetGitHash returns vcs revision recorded by the toolchain, if any.
func GetGitHash() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				if len(s.Value) > 12 {
					return s.Value[:12]
				}
				return s.Value
			}
		}
	}
	return "unknown"
}
