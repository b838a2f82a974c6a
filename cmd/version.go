package cmd

import (
	"cmp"
	"runtime/debug"
)

// Build information reported by --version.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// SetBuildInfo records release metadata. Values left empty by the linker
// are taken from the module build info, so go install builds still report
// a version and revision.
func SetBuildInfo(version, commit, date string) {
	Version, Commit, Date = resolveBuildInfo(version, commit, date, debug.ReadBuildInfo)
}

func resolveBuildInfo(version, commit, date string, read func() (*debug.BuildInfo, bool)) (string, string, string) {
	if info, ok := read(); ok && info != nil {
		if version == "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "":
				commit = s.Value[:min(len(s.Value), 12)]
			case s.Key == "vcs.time" && date == "":
				date = s.Value
			}
		}
	}
	return cmp.Or(version, "dev"), cmp.Or(commit, "unknown"), cmp.Or(date, "unknown")
}
