package discretize

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/model"
	"github.com/vk/discretego/internal/modelerr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Options tune a ProcessModel run.
type Options struct {
	// SkipChecks disables the post-assembly consistency checks.
	SkipChecks bool
	// BuildJacobian differentiates the assembled equations.
	BuildJacobian bool
}

// ProcessModel discretizes m and returns the lowered model. On success m is
// marked as discretized; a model already marked is rejected, so callers
// that need to discretize one model twice pass m.Copy().
func (e *Engine) ProcessModel(ctx context.Context, m *model.Model, opts Options) (dm *model.Discretized, err error) {
	if m == nil {
		return nil, modelerr.Configurationf("nothing to discretize: model is nil")
	}
	e.log = e.loggerFor(ctx).With("model", m.Name)
	ctx, span := e.tracer.Start(ctx, "discretize.ProcessModel")
	span.SetAttributes(attribute.String("model.name", m.Name), attribute.String("model.id", m.ID.String()))
	started := time.Now()
	defer func() {
		size := 0
		if dm != nil {
			size = dm.Size()
			span.SetAttributes(attribute.Int("model.state_size", size))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		e.metrics.observeRun(size, time.Since(started), err)
	}()

	if m.Discretized() {
		return nil, modelerr.Configurationf("model %q has already been discretized; discretize a copy instead", m.Name)
	}
	e.log.Info("Starting discretization.", "rhs", m.RHS.Len(), "algebraic", m.Algebraic.Len())

	e.reset()
	unknowns := m.Unknowns()
	if len(unknowns) == 0 {
		return nil, modelerr.Configurationf("nothing to discretize: model %q has no rhs or algebraic equations", m.Name)
	}

	dm = &model.Discretized{
		Source:            m.ID,
		Name:              m.Name,
		ExternalVariables: m.ExternalVariables,
	}

	if err := e.step(ctx, "set_variable_slices", func(context.Context) error {
		if err := e.SetVariableSlices(unknowns); err != nil {
			return err
		}
		dm.YSlices = e.ys
		dm.Lower, dm.Upper = e.Bounds()
		return nil
	}); err != nil {
		return nil, err
	}

	if err := e.step(ctx, "boundary_conditions", func(context.Context) error {
		user := m.BoundaryConditions.Clone()
		if err := e.SetExternalVariables(m.ExternalVariables, user); err != nil {
			return err
		}
		bcs, err := e.ResolveBoundaryConditions(user)
		if err != nil {
			return err
		}
		dm.BoundaryConditions = bcs
		return nil
	}); err != nil {
		return nil, err
	}

	if err := e.step(ctx, "initial_conditions", func(context.Context) error {
		for _, v := range unknowns {
			if !m.InitialConditions.Has(v) {
				return modelerr.Configurationf("no initial condition given for variable %q", v.Name())
			}
		}
		ics, err := e.lowerEquations("initial condition", m.InitialConditions)
		if err != nil {
			return err
		}
		dm.InitialConditions = ics
		dm.ConcatenatedInitialConditions, err = CanonicalConcat(ics, e.ys)
		return err
	}); err != nil {
		return nil, err
	}

	if err := e.step(ctx, "outputs", func(context.Context) error {
		outs, err := e.lowerOutputs(m.Outputs)
		if err != nil {
			return err
		}
		dm.Outputs = outs
		return nil
	}); err != nil {
		return nil, err
	}

	if err := e.step(ctx, "equations", func(context.Context) error {
		var err error
		if dm.RHS, err = e.lowerEquations("rhs", m.RHS); err != nil {
			return err
		}
		if dm.Algebraic, err = e.lowerEquations("algebraic equation", m.Algebraic); err != nil {
			return err
		}
		if dm.ConcatenatedRHS, err = CanonicalConcat(dm.RHS, e.ys); err != nil {
			return err
		}
		if dm.ConcatenatedAlgebraic, err = CanonicalConcat(dm.Algebraic, e.ys); err != nil {
			return err
		}
		dm.LenRHS = rows(dm.ConcatenatedRHS)
		dm.LenAlgebraic = rows(dm.ConcatenatedAlgebraic)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := e.step(ctx, "mass_matrix", func(context.Context) error {
		var err error
		dm.MassMatrix, dm.MassMatrixInv, err = e.CreateMassMatrix(m.RHS.Keys(), dm.LenAlgebraic)
		return err
	}); err != nil {
		return nil, err
	}

	if err := e.step(ctx, "events", func(context.Context) error {
		for _, ev := range m.Events {
			lowered, err := e.Lower(ev.Expr)
			if err != nil {
				return fmt.Errorf("lowering event %q: %w", ev.Name, err)
			}
			dm.Events = append(dm.Events, model.Event{Name: ev.Name, Expr: lowered, Type: ev.Type})
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if !opts.SkipChecks {
		if err := e.step(ctx, "check", func(context.Context) error { return checkModel(m, dm) }); err != nil {
			return nil, err
		}
	}
	if opts.BuildJacobian {
		if err := e.step(ctx, "jacobian", func(context.Context) error {
			var err error
			dm.Jacobian, dm.JacobianRHS, dm.JacobianAlgebraic, err = CreateJacobian(dm)
			return err
		}); err != nil {
			return nil, err
		}
	}

	if err := m.MarkDiscretized(); err != nil {
		return nil, err
	}
	e.log.Info("Finished discretization.",
		"state_size", dm.Size(), "rhs_rows", dm.LenRHS, "algebraic_rows", dm.LenAlgebraic,
		"elapsed", time.Since(started))
	return dm, nil
}

// step runs fn inside its own span.
func (e *Engine) step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := e.tracer.Start(ctx, "discretize."+name)
	defer span.End()
	e.log.Debug("Running discretization step.", "step", name)
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// lowerEquations lowers every value of eqs. A scalar equation for a
// variable with a domain is first broadcast over that domain.
func (e *Engine) lowerEquations(what string, eqs *model.Equations) (*model.Equations, error) {
	out := model.NewEquations()
	var lerr error
	eqs.Range(func(k, v *expr.Node) bool {
		if k.HasDomain() && !v.HasDomain() && v.Shape().Rows <= 1 {
			v = expr.FullBroadcast(v, k.Domains())
		}
		lowered, err := e.Lower(v)
		if err != nil {
			lerr = fmt.Errorf("lowering %s of %q: %w", what, k.Name(), err)
			return false
		}
		out.Put(k, lowered)
		return true
	})
	if lerr != nil {
		return nil, lerr
	}
	return out, nil
}

// lowerOutputs lowers every output. Domain-less expressions of outputs
// that declare domains are broadcast over them.
func (e *Engine) lowerOutputs(outs *model.Outputs) (*model.Outputs, error) {
	lowered := model.NewOutputs()
	for _, o := range outs.List() {
		v := o.Expr
		if !o.Domains.Empty() && !v.HasDomain() {
			v = expr.FullBroadcast(v, o.Domains)
		}
		l, err := e.Lower(v)
		if err != nil {
			return nil, fmt.Errorf("lowering output %q: %w", o.Name, err)
		}
		lowered.Put(model.Output{Name: o.Name, Expr: l, Domains: o.Domains})
	}
	return lowered, nil
}

func rows(n *expr.Node) int {
	if n == nil {
		return 0
	}
	return n.Shape().Rows
}
