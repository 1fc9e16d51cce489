package expr

import (
	"fmt"

	"github.com/vk/discretego/internal/modelerr"
	"gonum.org/v1/gonum/mat"
)

// EvalContext carries the numeric values a lowered tree is evaluated
// against. Inputs provides both input parameters and external variables,
// keyed by name.
type EvalContext struct {
	T      float64
	Y      []float64
	YDot   []float64
	Inputs map[string][]float64
}

// Evaluate computes the value of a lowered tree.
func Evaluate(n *Node, ctx EvalContext) (*mat.Dense, error) {
	if err := CheckShape(n); err != nil {
		return nil, err
	}
	switch n.kind {
	case KindScalar:
		return mat.NewDense(1, 1, []float64{n.Value()}), nil
	case KindArray:
		return mat.DenseCopyOf(n.Matrix()), nil
	case KindTime:
		return mat.NewDense(1, 1, []float64{ctx.T}), nil
	case KindInputParameter, KindExternalVariable:
		return evalInput(n, ctx)
	case KindStateVector:
		return gather(n, ctx.Y, "y")
	case KindStateVectorDot:
		return gather(n, ctx.YDot, "ydot")
	case KindBinary:
		return evalBinary(n, ctx)
	case KindNegate, KindAbs:
		v, err := Evaluate(n.children[0], ctx)
		if err != nil {
			return nil, err
		}
		v.Apply(func(_, _ int, x float64) float64 {
			if n.kind == KindNegate {
				return -x
			}
			if x < 0 {
				return -x
			}
			return x
		}, v)
		return v, nil
	case KindIndex:
		v, err := Evaluate(n.children[0], ctx)
		if err != nil {
			return nil, err
		}
		start, stop := n.IndexRange()
		_, c := v.Dims()
		return mat.DenseCopyOf(v.Slice(start, stop, 0, c)), nil
	case KindFunction:
		return evalFunction(n, ctx)
	case KindNumericConcatenation:
		return evalConcatenation(n, ctx)
	}
	return nil, fmt.Errorf("cannot evaluate %s node %s: not lowered", n.kind, n)
}

func evalInput(n *Node, ctx EvalContext) (*mat.Dense, error) {
	values, ok := ctx.Inputs[n.name]
	if !ok {
		return nil, fmt.Errorf("no value provided for %s %q", n.kind, n.name)
	}
	if size := n.Size(); size > 0 && len(values) != size && len(values) != 1 {
		return nil, modelerr.Shapef("%s %q expects %d values, got %d", n.kind, n.name, size, len(values))
	}
	if size := n.Size(); size > 1 && len(values) == 1 {
		out := mat.NewDense(size, 1, nil)
		for i := 0; i < size; i++ {
			out.Set(i, 0, values[0])
		}
		return out, nil
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty value provided for %s %q", n.kind, n.name)
	}
	return mat.NewDense(len(values), 1, append([]float64(nil), values...)), nil
}

func gather(n *Node, vec []float64, label string) (*mat.Dense, error) {
	out := make([]float64, 0, n.shape.Rows)
	for _, s := range n.Slices() {
		if s.Stop > len(vec) {
			return nil, fmt.Errorf("slice [%d:%d] out of range for %s of length %d", s.Start, s.Stop, label, len(vec))
		}
		out = append(out, vec[s.Start:s.Stop]...)
	}
	return mat.NewDense(len(out), 1, out), nil
}

func evalBinary(n *Node, ctx EvalContext) (*mat.Dense, error) {
	a, err := Evaluate(n.children[0], ctx)
	if err != nil {
		return nil, err
	}
	b, err := Evaluate(n.children[1], ctx)
	if err != nil {
		return nil, err
	}
	op := n.Op()
	if op == OpMatMul {
		var out mat.Dense
		out.Mul(a, b)
		return &out, nil
	}
	return broadcastApply(func(x []float64) float64 { return op.apply(x[0], x[1]) }, a, b)
}

func evalFunction(n *Node, ctx EvalContext) (*mat.Dense, error) {
	fn := n.Func()
	if fn == nil || fn.Eval == nil {
		return nil, fmt.Errorf("function %q has no implementation", n.name)
	}
	args := make([]*mat.Dense, len(n.children))
	for i, c := range n.children {
		v, err := Evaluate(c, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return broadcastApply(func(x []float64) float64 { return fn.Eval(x...) }, args...)
}

func evalConcatenation(n *Node, ctx EvalContext) (*mat.Dense, error) {
	out := mat.NewDense(n.shape.Rows, n.shape.Cols, nil)
	row := 0
	for _, c := range n.children {
		v, err := Evaluate(c, ctx)
		if err != nil {
			return nil, err
		}
		r, cols := v.Dims()
		out.Slice(row, row+r, 0, cols).(*mat.Dense).Copy(v)
		row += r
	}
	return out, nil
}

// broadcastApply evaluates f entry by entry over operands broadcast to a
// common shape.
func broadcastApply(f func([]float64) float64, operands ...*mat.Dense) (*mat.Dense, error) {
	rows, cols := 1, 1
	for _, m := range operands {
		r, c := m.Dims()
		switch {
		case r == rows && c == cols, r == 1 && c == 1:
		case rows == 1 && cols == 1:
			rows, cols = r, c
		case r == rows && c == 1:
		case r == rows && cols == 1:
			cols = c
		default:
			return nil, modelerr.Shapef("cannot broadcast (%d, %d) against (%d, %d)", r, c, rows, cols)
		}
	}
	out := mat.NewDense(rows, cols, nil)
	args := make([]float64, len(operands))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			for k, m := range operands {
				r, c := m.Dims()
				ii, jj := i, j
				if r == 1 {
					ii = 0
				}
				if c == 1 {
					jj = 0
				}
				args[k] = m.At(ii, jj)
			}
			out.Set(i, j, f(args))
		}
	}
	return out, nil
}
