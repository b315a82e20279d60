package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ConfigPath points at a .hcl file or a directory of .hcl files.
	// Optional; defaults apply when empty.
	ConfigPath string

	// Input is the query to run through the pipeline.
	Input string

	// Caller is the caller identity/credential used for tier resolution and
	// rate limiting. Empty means anonymous.
	Caller string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// Workers overrides the configured worker count when positive.
	Workers int
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Input == "" {
		return nil, errors.New("an input query is required")
	}
	return &cfg, nil
}
