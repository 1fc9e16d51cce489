package expr

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Jacobian differentiates the lowered tree n with respect to the state
// vector y, which must be a single slice starting at zero. The result is a
// lowered expression of shape (rows of n) x (width of y).
func Jacobian(n *Node, y *Node) (*Node, error) {
	if y.kind != KindStateVector || len(y.Slices()) != 1 || y.Slices()[0].Start != 0 {
		return nil, fmt.Errorf("jacobian variable must be a single state vector slice starting at 0, got %s", y)
	}
	d := differentiator{width: y.Slices()[0].Stop, memo: make(map[uint64]*Node)}
	return d.jac(n)
}

type differentiator struct {
	width int
	memo  map[uint64]*Node
}

func (d *differentiator) jac(n *Node) (*Node, error) {
	if out, ok := d.memo[n.id]; ok {
		return out, nil
	}
	out, err := d.rule(n)
	if err != nil {
		return nil, err
	}
	d.memo[n.id] = out
	return out, nil
}

func (d *differentiator) rule(n *Node) (*Node, error) {
	if !n.kind.Lowered() {
		return nil, fmt.Errorf("cannot differentiate %s node %s: not lowered", n.kind, n)
	}
	if err := CheckShape(n); err != nil {
		return nil, err
	}
	if !n.shape.Known() {
		return nil, fmt.Errorf("cannot differentiate %s: unknown shape", n)
	}
	if n.shape.Cols != 1 {
		return nil, fmt.Errorf("cannot differentiate %s of shape %s: not a column", n, n.shape)
	}
	rows := n.shape.Rows

	switch n.kind {
	case KindScalar, KindArray, KindTime, KindInputParameter, KindExternalVariable, KindStateVectorDot:
		return NewZeros(rows, d.width), nil
	case KindStateVector:
		sel := mat.NewDense(rows, d.width, nil)
		r := 0
		for _, s := range n.Slices() {
			if s.Stop > d.width {
				return nil, fmt.Errorf("state vector %s exceeds jacobian width %d", n, d.width)
			}
			for k := s.Start; k < s.Stop; k++ {
				sel.Set(r, k, 1)
				r++
			}
		}
		return NewArray(sel), nil
	case KindNegate:
		j, err := d.jac(n.children[0])
		if err != nil {
			return nil, err
		}
		return Neg(j), nil
	case KindAbs:
		j, err := d.expanded(n.children[0], rows)
		if err != nil {
			return nil, err
		}
		return Mul(Apply(FuncSign, n.children[0]), j), nil
	case KindIndex:
		j, err := d.jac(n.children[0])
		if err != nil {
			return nil, err
		}
		start, stop := n.IndexRange()
		return NewIndex(j, start, stop), nil
	case KindNumericConcatenation:
		parts := make([]*Node, len(n.children))
		for i, c := range n.children {
			j, err := d.jac(c)
			if err != nil {
				return nil, err
			}
			parts[i] = j
		}
		return NewNumericConcatenation(parts...), nil
	case KindFunction:
		return d.function(n, rows)
	case KindBinary:
		return d.binary(n, rows)
	}
	return nil, fmt.Errorf("no jacobian rule for %s", n.kind)
}

// expanded returns the jacobian of c repeated to rows rows when c is a
// scalar broadcast against a column.
func (d *differentiator) expanded(c *Node, rows int) (*Node, error) {
	j, err := d.jac(c)
	if err != nil {
		return nil, err
	}
	if c.shape.Rows == 1 && rows > 1 {
		return MatMul(NewOnes(rows, 1), j), nil
	}
	return j, nil
}

func (d *differentiator) function(n *Node, rows int) (*Node, error) {
	fn := n.Func()
	if fn == nil || fn.Diff == nil {
		return nil, fmt.Errorf("function %q has no derivative", n.name)
	}
	var out *Node
	for i, arg := range n.children {
		if IsConstant(arg) {
			continue
		}
		j, err := d.expanded(arg, rows)
		if err != nil {
			return nil, err
		}
		term := Mul(fn.Diff(i, n.children), j)
		if out == nil {
			out = term
		} else {
			out = Add(out, term)
		}
	}
	if out == nil {
		return NewZeros(rows, d.width), nil
	}
	return out, nil
}

func (d *differentiator) binary(n *Node, rows int) (*Node, error) {
	a, b := n.children[0], n.children[1]
	op := n.Op()
	if op == OpMatMul {
		if !IsConstant(a) {
			return nil, fmt.Errorf("cannot differentiate %s: left operand of @ must be constant", n)
		}
		jb, err := d.jac(b)
		if err != nil {
			return nil, err
		}
		return MatMul(a, jb), nil
	}
	ja, err := d.expanded(a, rows)
	if err != nil {
		return nil, err
	}
	jb, err := d.expanded(b, rows)
	if err != nil {
		return nil, err
	}
	switch op {
	case OpAdd:
		return Add(ja, jb), nil
	case OpSub:
		return Sub(ja, jb), nil
	case OpMul:
		return Add(Mul(b, ja), Mul(a, jb)), nil
	case OpDiv:
		return Sub(Div(ja, b), Mul(Div(a, Pow(b, NewScalar(2))), jb)), nil
	case OpPow:
		base := Mul(Mul(b, Pow(a, Sub(b, NewScalar(1)))), ja)
		if IsConstant(b) {
			return base, nil
		}
		return Add(base, Mul(Mul(n, Apply(FuncLog, a)), jb)), nil
	case OpMin:
		left := Apply(FuncHeaviside, Sub(b, a))
		return Add(Mul(left, ja), Mul(Sub(NewScalar(1), left), jb)), nil
	case OpMax:
		left := Apply(FuncHeaviside, Sub(a, b))
		return Add(Mul(left, ja), Mul(Sub(NewScalar(1), left), jb)), nil
	}
	return nil, fmt.Errorf("no jacobian rule for operator %s", op)
}
