package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/expr"
	"gonum.org/v1/gonum/mat"
)

// Discretized is a model lowered onto a mesh: every expression in it refers
// only to the flat state vector, constant matrices, time and inputs.
type Discretized struct {
	// Source is the ID of the model this was produced from.
	Source uuid.UUID
	Name   string

	YSlices *SliceTable
	// Lower and Upper are the bounds of every state entry.
	Lower, Upper []float64

	BoundaryConditions *boundary.Set

	RHS                           *Equations
	ConcatenatedRHS               *expr.Node
	Algebraic                     *Equations
	ConcatenatedAlgebraic         *expr.Node
	InitialConditions             *Equations
	ConcatenatedInitialConditions *expr.Node

	Outputs           *Outputs
	Events            []Event
	ExternalVariables []*expr.Node

	MassMatrix mat.Matrix
	// MassMatrixInv is the inverse of the differential block of MassMatrix.
	// It is nil when the model has no differential equations.
	MassMatrixInv mat.Matrix

	LenRHS       int
	LenAlgebraic int

	// Jacobians of the concatenated equations with respect to the full
	// state. They are nil unless requested.
	Jacobian          *expr.Node
	JacobianRHS       *expr.Node
	JacobianAlgebraic *expr.Node
}

// Size returns the length of the state vector.
func (d *Discretized) Size() int { return d.LenRHS + d.LenAlgebraic }

// InitialState evaluates the concatenated initial conditions.
func (d *Discretized) InitialState(inputs map[string][]float64) ([]float64, error) {
	return d.eval("initial conditions", d.ConcatenatedInitialConditions, expr.EvalContext{Inputs: inputs})
}

// EvalRHS evaluates the differential right-hand side at (t, y).
func (d *Discretized) EvalRHS(t float64, y []float64, inputs map[string][]float64) ([]float64, error) {
	return d.eval("rhs", d.ConcatenatedRHS, expr.EvalContext{T: t, Y: y, Inputs: inputs})
}

// EvalAlgebraic evaluates the algebraic residuals at (t, y).
func (d *Discretized) EvalAlgebraic(t float64, y []float64, inputs map[string][]float64) ([]float64, error) {
	return d.eval("algebraic", d.ConcatenatedAlgebraic, expr.EvalContext{T: t, Y: y, Inputs: inputs})
}

// EvalEvents evaluates every event at (t, y). The result is aligned with
// Events.
func (d *Discretized) EvalEvents(t float64, y []float64, inputs map[string][]float64) ([][]float64, error) {
	ctx := expr.EvalContext{T: t, Y: y, Inputs: inputs}
	out := make([][]float64, len(d.Events))
	for i, ev := range d.Events {
		v, err := d.eval("event "+ev.Name, ev.Expr, ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// EvalJacobian evaluates the full Jacobian at (t, y).
func (d *Discretized) EvalJacobian(t float64, y []float64, inputs map[string][]float64) (*mat.Dense, error) {
	if d.Jacobian == nil {
		return nil, fmt.Errorf("model %q was discretized without a jacobian", d.Name)
	}
	m, err := expr.Evaluate(d.Jacobian, expr.EvalContext{T: t, Y: y, Inputs: inputs})
	if err != nil {
		return nil, fmt.Errorf("evaluating jacobian of %q: %w", d.Name, err)
	}
	return m, nil
}

func (d *Discretized) eval(what string, n *expr.Node, ctx expr.EvalContext) ([]float64, error) {
	if n == nil {
		return nil, nil
	}
	m, err := expr.Evaluate(n, ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s of %q: %w", what, d.Name, err)
	}
	r, c := m.Dims()
	if c == 1 {
		return mat.Col(nil, 0, m), nil
	}
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		out = append(out, mat.Row(nil, i, m)...)
	}
	return out, nil
}
