package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/ratufa/internal/scaffold"
)

var validate = validator.New()

// Config represents the ratufa configuration file (~/.config/ratufa/config.yaml).
// Empty fields leave the matching flag default in place.
type Config struct {
	Scaffold string `yaml:"scaffold"`
	ROMDir   string `yaml:"rom_dir"`

	// Standard stream wiring for run
	StdoutMode string `yaml:"stdout_mode" validate:"omitempty,oneof=discard buffer terminal"`
	StderrMode string `yaml:"stderr_mode" validate:"omitempty,oneof=discard buffer terminal"`
	Fork       *bool  `yaml:"fork"`

	// Output
	LogLevel  string `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat string `yaml:"log_format" validate:"omitempty,oneof=pretty json text"`

	// Server
	ServerAddress string `yaml:"server_address" validate:"omitempty,hostname_port"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ratufa", "config.yaml")
}

// LoadConfig reads and validates the config file. A missing file yields a
// zero Config.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := validate.Struct(c); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if c.Scaffold != "" {
		name, err := scaffold.Normalize(c.Scaffold)
		if err != nil {
			return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
		}
		c.Scaffold = name
	}
	return c, nil
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyRunConfig applies config file defaults to run command variables
// when the corresponding CLI flag was not explicitly set.
func applyRunConfig(c *cli.Command, cfg Config,
	scaffoldName, romDir, stdoutMode, stderrMode *string, fork *bool,
) {
	if cfg.Scaffold != "" && !c.IsSet("scaffold") {
		*scaffoldName = cfg.Scaffold
	}
	if cfg.ROMDir != "" && !c.IsSet("rom-dir") {
		*romDir = cfg.ROMDir
	}
	if cfg.StdoutMode != "" && !c.IsSet("stdout-mode") {
		*stdoutMode = cfg.StdoutMode
	}
	if cfg.StderrMode != "" && !c.IsSet("stderr-mode") {
		*stderrMode = cfg.StderrMode
	}
	if cfg.Fork != nil && !c.IsSet("fork") {
		*fork = *cfg.Fork
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, scaffoldName, romDir, addr *string) {
	if cfg.Scaffold != "" && !c.IsSet("scaffold") {
		*scaffoldName = cfg.Scaffold
	}
	if cfg.ROMDir != "" && !c.IsSet("rom-dir") {
		*romDir = cfg.ROMDir
	}
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
