package app

import (
	"context"
	"fmt"

	"github.com/vk/discretego/internal/ctxlog"
	"github.com/vk/discretego/internal/discretize"
	"github.com/vk/discretego/internal/model"
)

// Run discretizes the selected models and writes a report for each of them
// to the output writer. Every model is discretized from a copy, so the
// loaded configuration stays reusable.
func (a *App) Run(ctx context.Context) error {
	ctx, logger := ctxlog.With(ctxlog.WithLogger(ctx, a.logger), "model_path", a.cfg.ModelPath)
	logger.Debug("App.Run method started.")

	if a.cfg.MetricsPort > 0 {
		if err := a.startMonitoringServer(ctx, a.cfg.MetricsPort); err != nil {
			return err
		}
		defer a.closeMonitoringServer(ctx)
	}

	models, err := a.selectModels()
	if err != nil {
		return err
	}
	if len(models) == 0 {
		logger.Warn("No models found, discretization not required.")
		return nil
	}

	m, err := a.model.Mesh()
	if err != nil {
		return fmt.Errorf("failed to build mesh: %w", err)
	}
	methods, err := a.registry.Methods(a.model)
	if err != nil {
		return fmt.Errorf("failed to create spatial methods: %w", err)
	}
	engine, err := discretize.New(m, methods, discretize.WithMetrics(a.metrics))
	if err != nil {
		return fmt.Errorf("failed to set up discretization: %w", err)
	}
	logger.Debug("Discretization engine ready.", "domains", m.Domains())

	opts := discretize.Options{SkipChecks: a.cfg.SkipChecks, BuildJacobian: a.cfg.Jacobian}
	for _, md := range models {
		if err := ctx.Err(); err != nil {
			return err
		}
		dm, err := engine.ProcessModel(ctx, md.Copy(), opts)
		if err != nil {
			return fmt.Errorf("model '%s': %w", md.Name, err)
		}
		if err := writeReport(a.outW, dm, a.inputs()); err != nil {
			return fmt.Errorf("writing report for model '%s': %w", md.Name, err)
		}
	}

	logger.Info("Discretization finished.", "models", len(models))
	return nil
}

func (a *App) selectModels() ([]*model.Model, error) {
	if a.cfg.Model == "" {
		return a.model.Models, nil
	}
	md, ok := a.model.FindModel(a.cfg.Model)
	if !ok {
		return nil, fmt.Errorf("model '%s' not found in %s", a.cfg.Model, a.cfg.ModelPath)
	}
	return []*model.Model{md}, nil
}

func (a *App) inputs() map[string][]float64 {
	out := make(map[string][]float64, len(a.cfg.Inputs))
	for name, v := range a.cfg.Inputs {
		out[name] = []float64{v}
	}
	return out
}
