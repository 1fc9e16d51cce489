package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/vk/discretego/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments on top of the DISCRETEGO_*
// environment. It returns a populated Config, a boolean indicating if the
// program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return ParseWithEnv(args, output, nil)
}

// ParseWithEnv is Parse with an explicit environment. A nil environ reads
// the process environment.
func ParseWithEnv(args []string, output io.Writer, environ map[string]string) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	base, err := app.ConfigFromEnv(environ)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("discretego", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
discretego - Discretize symbolic PDE models declared in HCL into flat
state-vector systems.

Usage:
  discretego [options] [MODEL_PATH]

Arguments:
  MODEL_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Every option can also be set through the environment, e.g.
DISCRETEGO_LOG_LEVEL=debug or DISCRETEGO_INPUTS="I=1,T=298".

Options:
`)
		flagSet.PrintDefaults()
	}

	pathFlag := flagSet.String("model-path", base.ModelPath, "Path to the model file or directory.")
	mFlag := flagSet.String("m", "", "Path to the model file or directory (shorthand).")
	modelFlag := flagSet.String("model", base.Model, "Discretize only the model with this name.")
	logFormatFlag := flagSet.String("log-format", base.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", base.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	metricsPortFlag := flagSet.Int("metrics-port", base.MetricsPort, "Port for the /health and /metrics HTTP server. 0 is disabled.")
	jacobianFlag := flagSet.Bool("jacobian", base.Jacobian, "Build the Jacobian of the discretized equations.")
	skipChecksFlag := flagSet.Bool("skip-checks", base.SkipChecks, "Skip the consistency checks of the discretized model.")

	inputs := maps.Clone(base.Inputs)
	if inputs == nil {
		inputs = make(map[string]float64)
	}
	flagSet.Func("input", "Input parameter value as name=value. May be repeated.", func(s string) error {
		name, value, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return errors.New("expected name=value")
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("input '%s': %w", name, err)
		}
		inputs[name] = v
		return nil
	})

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *mFlag != "" {
		path = *mFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	} else {
		path = *pathFlag
	}
	slog.Debug("Model path determined.", "path", path)

	if path == "" {
		slog.Debug("No model path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		ModelPath:   path,
		Model:       *modelFlag,
		LogFormat:   strings.ToLower(*logFormatFlag),
		LogLevel:    strings.ToLower(*logLevelFlag),
		MetricsPort: *metricsPortFlag,
		Jacobian:    *jacobianFlag,
		SkipChecks:  *skipChecksFlag,
		Inputs:      inputs,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
