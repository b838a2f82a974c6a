package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/m96-chan/chanlist/cmd"
	"github.com/m96-chan/chanlist/internal/consts"
)

// Release builds set these with -ldflags "-X main.version=...".
var version, commit, date string

func main() {
	cmd.SetBuildInfo(version, commit, date)

	if err := cmd.Run(); err != nil {
		slog.Error("exiting", "error", err)
		// The log goes to a file; the user still needs to see why.
		fmt.Fprintf(os.Stderr, "%s: %v\n", consts.Name, err)
		os.Exit(1)
	}
}
