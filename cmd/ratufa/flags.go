package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ratufa/internal/logger"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	// cfg is the config file, loaded once in setup.
	cfg Config
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func romFlags(roms *[]string, romDir *string) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "rom",
			Aliases:     []string{"r"},
			Usage:       "ROM file or name, repeatable, in classpath order",
			Destination: roms,
		},
		&cli.StringFlag{
			Name:        "rom-dir",
			Usage:       "directory bare ROM names are resolved against (env " + envRatufaROMDir + ")",
			Destination: romDir,
		},
	}
}

// setup loads the config file and installs the logger on the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := configFile
	if path == "" {
		path = configPath()
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	cfg = loaded
	applyLoggingConfig(cmd, cfg)

	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	log := logger.Open(logFormat, level, os.Stderr)
	return logger.WithContext(ctx, log), nil
}
