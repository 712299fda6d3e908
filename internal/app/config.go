package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Paths are .eqn files or directories containing them.
	Paths []string

	// BindingsPath points to an optional YAML file of external quantity
	// bindings, searched during implicit namespace resolution.
	BindingsPath string

	// Freeze inlines all resolved bindings as literals after finalization.
	Freeze bool

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one equation file or directory is required")
	}
	return &cfg, nil
}
