package cmd

import (
	"runtime/debug"
	"testing"
)

func TestResolveBuildInfo(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
		},
	}
	found := func() (*debug.BuildInfo, bool) { return info, true }
	missing := func() (*debug.BuildInfo, bool) { return nil, false }
	devel := func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true
	}

	tests := []struct {
		name                string
		version, commit, at string
		read                func() (*debug.BuildInfo, bool)
		want                [3]string
	}{
		{"from build info", "", "", "", found, [3]string{"v1.2.3", "0123456789ab", "2026-10-01T12:00:00Z"}},
		{"linker values win", "v2.0.0", "abc", "today", found, [3]string{"v2.0.0", "abc", "today"}},
		{"no build info", "", "", "", missing, [3]string{"dev", "unknown", "unknown"}},
		{"devel build", "", "", "", devel, [3]string{"dev", "unknown", "unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, c, d := resolveBuildInfo(tt.version, tt.commit, tt.at, tt.read)
			if got := [3]string{v, c, d}; got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
