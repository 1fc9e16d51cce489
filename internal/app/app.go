package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/discretego/internal/config"
	"github.com/vk/discretego/internal/ctxlog"
	"github.com/vk/discretego/internal/discretize"
	"github.com/vk/discretego/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	cfg      *Config
	registry *registry.Registry
	model    *config.Model

	gatherer   prometheus.Gatherer
	metrics    *discretize.Metrics
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the model
// files, registers the spatial method modules (the core ones when none are
// given) and validates the loaded configuration against them.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfgModel, err := loader.Load(ctx, appConfig.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.", "models", len(cfgModel.Models))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All spatial method modules registered.", "count", len(modules), "methods", reg.Names())

	if err := reg.ValidateRegistry(ctx, cfgModel); err != nil {
		return nil, err
	}

	promReg := prometheus.NewRegistry()
	return &App{
		outW:     outW,
		logger:   logger,
		cfg:      appConfig,
		registry: reg,
		model:    cfgModel,
		gatherer: promReg,
		metrics:  discretize.NewMetrics(promReg),
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Config returns the loaded configuration model.
func (a *App) Config() *config.Model {
	return a.model
}
