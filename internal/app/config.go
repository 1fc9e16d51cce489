package app

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all the necessary configuration for an App instance to run.
// Every field can be set from the environment; command-line flags take
// precedence.
type Config struct {
	ModelPath string `env:"DISCRETEGO_MODEL_PATH"` // hcl file or directory

	// Model restricts the run to one model. Empty runs every model.
	Model string `env:"DISCRETEGO_MODEL"`

	LogFormat   string `env:"DISCRETEGO_LOG_FORMAT"   envDefault:"text"`
	LogLevel    string `env:"DISCRETEGO_LOG_LEVEL"    envDefault:"info"`
	MetricsPort int    `env:"DISCRETEGO_METRICS_PORT"`

	Jacobian   bool `env:"DISCRETEGO_JACOBIAN"`
	SkipChecks bool `env:"DISCRETEGO_SKIP_CHECKS"`

	// Inputs are the input parameter values used to evaluate the initial
	// state in the report, e.g. DISCRETEGO_INPUTS="I=1,T=298".
	Inputs map[string]float64 `env:"DISCRETEGO_INPUTS" envSeparator:"," envKeyValSeparator:"="`
}

// ConfigFromEnv reads a Config from environ, or from the process
// environment when environ is nil.
func ConfigFromEnv(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("ModelPath is a required configuration field and cannot be empty")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format '%s': must be 'text' or 'json'", cfg.LogFormat)
	}
	if _, ok := parseLevel(cfg.LogLevel); !ok {
		return nil, fmt.Errorf("invalid log level '%s': must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return nil, fmt.Errorf("invalid metrics port %d", cfg.MetricsPort)
	}
	return &cfg, nil
}
