package cmd

import (
	"flag"
	"fmt"
	"log/slog"

	"github.com/m96-chan/chanlist/internal/app"
	"github.com/m96-chan/chanlist/internal/config"
	"github.com/m96-chan/chanlist/internal/consts"
	"github.com/m96-chan/chanlist/internal/keyring"
	"github.com/m96-chan/chanlist/internal/logger"
)

// Run parses CLI flags, sets up logging and config, and starts the app.
func Run() error {
	configPath := flag.String("config-path", config.DefaultPath(), "path to config file")
	logPath := flag.String("log-path", logger.DefaultPath(), "path to log file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "print version and exit")
	logout := flag.Bool("logout", false, "remove stored tokens from the system keyring and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (%s, %s)\n", consts.Name, Version, Commit, Date)
		return nil
	}
	if *logout {
		if err := keyring.Clear(); err != nil {
			return fmt.Errorf("remove stored tokens: %w", err)
		}
		fmt.Println("stored tokens removed")
		return nil
	}

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	closeLog, err := logger.Setup(*logPath, level)
	if err != nil {
		return err
	}
	defer closeLog()

	slog.Info("starting "+consts.Name, "version", Version, "config", *configPath, "log", *logPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	return app.New(cfg).Run()
}
