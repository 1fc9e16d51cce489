package discretize

import (
	"fmt"

	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/model"
)

// CreateJacobian differentiates the lowered rhs and algebraic equations of
// dm with respect to the whole state vector. Each equation is simplified and
// differentiated on its own; the results are stacked in state order. The
// full Jacobian stacks the rhs block on top of the algebraic block.
func CreateJacobian(dm *model.Discretized) (jac, jacRHS, jacAlgebraic *expr.Node, err error) {
	n := dm.Size()
	if n == 0 {
		return nil, nil, nil, fmt.Errorf("model %q has an empty state vector", dm.Name)
	}
	y := expr.NewStateVector(expr.Domains{}, expr.Slice{Start: 0, Stop: n})

	perEquation := func(what string, eqs *model.Equations) (*expr.Node, error) {
		out := model.NewEquations()
		var derr error
		eqs.Range(func(k, v *expr.Node) bool {
			j, err := expr.Jacobian(expr.Simplify(v), y)
			if err != nil {
				derr = fmt.Errorf("jacobian of %s equation for %q: %w", what, k.Name(), err)
				return false
			}
			out.Put(k, j)
			return true
		})
		if derr != nil {
			return nil, derr
		}
		return CanonicalConcat(out, dm.YSlices)
	}

	if jacRHS, err = perEquation("rhs", dm.RHS); err != nil {
		return nil, nil, nil, err
	}
	if jacAlgebraic, err = perEquation("algebraic", dm.Algebraic); err != nil {
		return nil, nil, nil, err
	}
	switch {
	case jacRHS != nil && jacAlgebraic != nil:
		jac = expr.NewNumericConcatenation(jacRHS, jacAlgebraic)
	case jacRHS != nil:
		jac = jacRHS
	default:
		jac = jacAlgebraic
	}
	return jac, jacRHS, jacAlgebraic, nil
}
