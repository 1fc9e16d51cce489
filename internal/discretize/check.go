package discretize

import (
	"fmt"
	"strings"

	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/model"
	"github.com/vk/discretego/internal/modelerr"
)

// checkModel runs the post-assembly consistency checks on dm, built from
// src. Every failure is collected into one error.
func checkModel(src *model.Model, dm *model.Discretized) error {
	var errs []error
	errs = append(errs, checkInitialBounds(dm)...)
	errs = append(errs, checkEquationShapes(dm)...)
	errs = append(errs, checkOutputs(src, dm)...)
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	// One %w per failure so errors.Is sees every kind.
	format := "model %q failed %d checks:" + strings.Repeat("\n- %w", len(errs))
	args := []any{dm.Name, len(errs)}
	for _, err := range errs {
		args = append(args, err)
	}
	return fmt.Errorf(format, args...)
}

// checkInitialBounds evaluates every initial condition that depends only on
// constants and compares it with its variable's bounds.
func checkInitialBounds(dm *model.Discretized) []error {
	var errs []error
	dm.InitialConditions.Range(func(k, ic *expr.Node) bool {
		if expr.HasKind(ic, expr.KindInputParameter, expr.KindExternalVariable, expr.KindStateVector, expr.KindStateVectorDot) {
			return true
		}
		v, err := expr.Evaluate(ic, expr.EvalContext{})
		if err != nil {
			errs = append(errs, fmt.Errorf("evaluating initial condition of %q: %w", k.Name(), err))
			return true
		}
		lo, hi := k.Bounds()
		r, c := v.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if x := v.At(i, j); x < lo || x > hi {
					errs = append(errs, modelerr.Configurationf("initial condition of %q is %g, outside its bounds [%g, %g]", k.Name(), x, lo, hi))
					return true
				}
			}
		}
		return true
	})
	return errs
}

// checkEquationShapes compares every equation with its initial condition,
// and the total equation length with the initial state.
func checkEquationShapes(dm *model.Discretized) []error {
	var errs []error
	for _, eqs := range []struct {
		what string
		eqs  *model.Equations
	}{{"rhs", dm.RHS}, {"algebraic", dm.Algebraic}} {
		eqs.eqs.Range(func(k, eq *expr.Node) bool {
			ic, ok := dm.InitialConditions.Get(k)
			if !ok {
				return true
			}
			if eq.Shape() != ic.Shape() {
				errs = append(errs, modelerr.Shapef("%s of %q has shape %s but its initial condition has shape %s",
					eqs.what, k.Name(), eq.Shape(), ic.Shape()))
			}
			return true
		})
	}
	if ic := dm.ConcatenatedInitialConditions; ic != nil && dm.Size() != ic.Shape().Rows {
		errs = append(errs, modelerr.Shapef("rhs and algebraic equations have %d rows but the initial state has %d",
			dm.Size(), ic.Shape().Rows))
	}
	return errs
}

// checkOutputs compares every output named after a differential unknown with
// that unknown's rhs. Concatenations and broadcasts by a vector of ones are
// allowed to differ.
func checkOutputs(src *model.Model, dm *model.Discretized) []error {
	var errs []error
	dm.RHS.Range(func(k, rhs *expr.Node) bool {
		out, ok := dm.Outputs.Get(k.Name())
		if !ok {
			return true
		}
		if out.Expr.Shape() == rhs.Shape() {
			return true
		}
		if orig, ok := src.Outputs.Get(k.Name()); ok && isConcatenation(orig.Expr) {
			return true
		}
		if isConcatenation(out.Expr) || isOnesBroadcast(out.Expr) {
			return true
		}
		errs = append(errs, modelerr.Shapef("output %q has shape %s but the rhs of the variable has shape %s",
			k.Name(), out.Expr.Shape(), rhs.Shape()))
		return true
	})
	return errs
}

func isConcatenation(n *expr.Node) bool {
	switch n.Kind() {
	case expr.KindConcatenationVariable, expr.KindDomainConcatenation, expr.KindNumericConcatenation:
		return true
	case expr.KindBinary:
		return n.Op() == expr.OpMatMul && n.Child(1).Kind() == expr.KindNumericConcatenation
	}
	return false
}

// isOnesBroadcast recognizes a value scaled by a constant vector of ones.
func isOnesBroadcast(n *expr.Node) bool {
	if n.Kind() != expr.KindBinary || (n.Op() != expr.OpMul && n.Op() != expr.OpMatMul) {
		return false
	}
	for _, c := range n.Children() {
		if c.Kind() == expr.KindArray && expr.IsOne(c) {
			return true
		}
	}
	return false
}
