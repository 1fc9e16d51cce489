// This file translates the decoded HCL blocks into the format-agnostic
// configuration model and the model containers of the discretizer.

package hcl_adapter

import (
	"context"
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/config"
	"github.com/vk/discretego/internal/ctxlog"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/mesh"
	"github.com/vk/discretego/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// translateDomain converts a domain block, decoding its constant attributes.
func translateDomain(ctx context.Context, d *Domain) (*config.Domain, error) {
	out := &config.Domain{Name: d.Name, CoordSys: mesh.Cartesian}
	if _, err := decodeAttr(ctx, d.Points, "points", cty.Number, &out.Points); err != nil {
		return nil, fmt.Errorf("domain '%s': %w", d.Name, err)
	}
	if _, err := decodeAttr(ctx, d.CoordSys, "coord_sys", cty.String, &out.CoordSys); err != nil {
		return nil, fmt.Errorf("domain '%s': %w", d.Name, err)
	}
	if _, err := decodeAttr(ctx, d.Tabs, "tabs", cty.Map(cty.String), &out.Tabs); err != nil {
		return nil, fmt.Errorf("domain '%s': %w", d.Name, err)
	}
	hasMin, err := decodeAttr(ctx, d.Min, "min", cty.Number, &out.Min)
	if err != nil {
		return nil, fmt.Errorf("domain '%s': %w", d.Name, err)
	}
	hasMax, err := decodeAttr(ctx, d.Max, "max", cty.Number, &out.Max)
	if err != nil {
		return nil, fmt.Errorf("domain '%s': %w", d.Name, err)
	}
	if out.Points > 0 && !(hasMin && hasMax) {
		return nil, fmt.Errorf("domain '%s': a meshed domain needs both min and max", d.Name)
	}
	if out.Points < 0 {
		return nil, fmt.Errorf("domain '%s': points must not be negative, got %d", d.Name, out.Points)
	}
	return out, nil
}

// translateModel converts a model block. Declarations are resolved first so
// that equations can refer to any symbol of the model regardless of order.
func translateModel(ctx context.Context, m *Model) (*model.Model, error) {
	logger := ctxlog.FromContext(ctx).With("model", m.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL model to internal model.")

	md := model.New(m.Name)
	sc, err := declare(ctx, m, md)
	if err != nil {
		return nil, fmt.Errorf("model '%s': %w", m.Name, err)
	}

	if err := translateEquations(ctx, sc, m.RHS, md.RHS, md); err != nil {
		return nil, fmt.Errorf("model '%s', rhs: %w", m.Name, err)
	}
	if err := translateEquations(ctx, sc, m.Algebraic, md.Algebraic, md); err != nil {
		return nil, fmt.Errorf("model '%s', algebraic: %w", m.Name, err)
	}
	for _, b := range m.Boundaries {
		key, err := sc.lookup(b.Variable)
		if err != nil {
			return nil, fmt.Errorf("model '%s', boundary_conditions '%s': %w", m.Name, b.Variable, err)
		}
		sides, err := translateSides(ctx, sc, b)
		if err != nil {
			return nil, fmt.Errorf("model '%s', boundary_conditions '%s': %w", m.Name, b.Variable, err)
		}
		md.BoundaryConditions.Put(key, sides)
	}
	for _, o := range m.Outputs {
		value, err := sc.translate(o.Value)
		if err != nil {
			return nil, fmt.Errorf("model '%s', output '%s': %w", m.Name, o.Name, err)
		}
		md.Outputs.Put(model.Output{Name: o.Name, Expr: value, Domains: expr.On(o.Domain...)})
	}
	for _, e := range m.Events {
		value, err := sc.translate(e.Value)
		if err != nil {
			return nil, fmt.Errorf("model '%s', event '%s': %w", m.Name, e.Name, err)
		}
		typ := model.Termination
		if e.Type != nil {
			if typ, err = model.ParseEventType(*e.Type); err != nil {
				return nil, fmt.Errorf("model '%s', event '%s': %w", m.Name, e.Name, err)
			}
		}
		md.Events = append(md.Events, model.Event{Name: e.Name, Expr: value, Type: typ})
	}

	logger.Debug("HCL model translated.",
		"rhs", md.RHS.Len(),
		"algebraic", md.Algebraic.Len(),
		"boundary_conditions", md.BoundaryConditions.Len(),
		"outputs", md.Outputs.Len(),
		"events", len(md.Events),
	)
	return md, nil
}

// declare builds the symbol table of m.
func declare(ctx context.Context, m *Model, md *model.Model) (*scope, error) {
	sc := newScope()
	for _, v := range m.Variables {
		lower, upper := math.Inf(-1), math.Inf(1)
		var bounds []float64
		ok, err := decodeAttr(ctx, v.Bounds, "bounds", cty.List(cty.Number), &bounds)
		if err != nil {
			return nil, fmt.Errorf("variable '%s': %w", v.Name, err)
		}
		if ok {
			if len(bounds) != 2 || !(bounds[0] < bounds[1]) {
				return nil, fmt.Errorf("variable '%s': bounds must be [lower, upper] with lower < upper, got %v", v.Name, bounds)
			}
			lower, upper = bounds[0], bounds[1]
		}
		d := expr.Domains{Primary: v.Domain, Secondary: v.Secondary}
		node := expr.NewBoundedVariable(v.Name, d, lower, upper)
		if err := sc.define(v.Name, node); err != nil {
			return nil, err
		}
		if v.External {
			md.ExternalVariables = append(md.ExternalVariables, node)
		}
	}
	for _, s := range m.SpatialVariables {
		coordSys := mesh.Cartesian
		if _, err := decodeAttr(ctx, s.CoordSys, "coord_sys", cty.String, &coordSys); err != nil {
			return nil, fmt.Errorf("spatial_variable '%s': %w", s.Name, err)
		}
		if !mesh.ValidCoordSys(coordSys) {
			return nil, fmt.Errorf("spatial_variable '%s': unknown coordinate system '%s'", s.Name, coordSys)
		}
		if err := sc.define(s.Name, expr.NewSpatialVariable(s.Name, expr.On(s.Domain...), coordSys)); err != nil {
			return nil, err
		}
	}
	for _, in := range m.Inputs {
		if err := sc.define(in.Name, expr.NewInputParameterOn(in.Name, expr.On(in.Domain...))); err != nil {
			return nil, err
		}
	}
	for _, c := range m.Concatenations {
		children := make([]*expr.Node, 0, len(c.Children))
		for _, name := range c.Children {
			child, err := sc.lookup(name)
			if err != nil {
				return nil, fmt.Errorf("concatenation '%s': %w", c.Name, err)
			}
			if child.Kind() != expr.KindVariable {
				return nil, fmt.Errorf("concatenation '%s': child '%s' is not a variable", c.Name, name)
			}
			children = append(children, child)
		}
		if err := sc.define(c.Name, expr.NewConcatenationVariable(c.Name, children...)); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

// translateEquations fills eqs and the initial conditions of md from blocks.
func translateEquations(ctx context.Context, sc *scope, blocks []*Equation, eqs *model.Equations, md *model.Model) error {
	for _, b := range blocks {
		key, err := sc.lookup(b.Variable)
		if err != nil {
			return err
		}
		switch key.Kind() {
		case expr.KindVariable, expr.KindConcatenationVariable:
		default:
			return fmt.Errorf("'%s' is not a variable", b.Variable)
		}
		if eqs.Has(key) {
			return fmt.Errorf("variable '%s' has two equations", b.Variable)
		}
		value, err := sc.translate(b.Equation)
		if err != nil {
			return fmt.Errorf("variable '%s': %w", b.Variable, err)
		}
		eqs.Put(key, value)

		if !isExprDefined(ctx, b.Initial, "initial") {
			continue
		}
		ic, err := sc.translate(b.Initial)
		if err != nil {
			return fmt.Errorf("variable '%s', initial: %w", b.Variable, err)
		}
		md.InitialConditions.Put(key, ic)
	}
	return nil
}

// translateSides converts the side attributes of a boundary block.
func translateSides(ctx context.Context, sc *scope, b *Boundary) (boundary.Sides, error) {
	attrs := []struct {
		side string
		name string
		expr hcl.Expression
	}{
		{boundary.Left, "left", b.Left},
		{boundary.Right, "right", b.Right},
		{boundary.NegativeTab, "negative_tab", b.NegativeTab},
		{boundary.PositiveTab, "positive_tab", b.PositiveTab},
		{boundary.NoTab, "no_tab", b.NoTab},
	}
	sides := boundary.Sides{}
	for _, a := range attrs {
		if !isExprDefined(ctx, a.expr, a.name) {
			continue
		}
		cond, err := sc.condition(a.expr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.name, err)
		}
		sides[a.side] = cond
	}
	if len(sides) == 0 {
		return nil, fmt.Errorf("no side is set")
	}
	return sides, nil
}
