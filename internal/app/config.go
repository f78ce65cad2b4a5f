package app

import (
	"errors"
	"fmt"
)

// Commands understood by App.Run.
const (
	CommandBuild   = "build"
	CommandResolve = "resolve"
	CommandInfo    = "info"
	CommandClean   = "clean"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command    string
	ConfigPath string // hcl file or directory
	OutDir     string
	CacheDir   string
	JavaHome   string
	EventsURL  string
	SkipTests  bool
	CleanCache bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.OutDir == "" || cfg.CacheDir == "" {
		return nil, errors.New("output and cache directories must not be empty")
	}
	switch cfg.Command {
	case "":
		cfg.Command = CommandBuild
	case CommandBuild, CommandResolve, CommandInfo, CommandClean:
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	if cfg.WorkerCount < 0 {
		return nil, errors.New("worker count must not be negative")
	}
	return &cfg, nil
}
