package expr

import "gonum.org/v1/gonum/mat"

// Simplify folds constant subtrees and removes arithmetic identities. It
// only folds subtrees made entirely of lowered kinds that do not depend on
// time, state, inputs or externals. Domains of folded nodes are preserved.
func Simplify(n *Node) *Node {
	s := simplifier{memo: make(map[uint64]*Node)}
	return s.simplify(n)
}

type simplifier struct {
	memo map[uint64]*Node
}

func (s *simplifier) simplify(n *Node) *Node {
	if out, ok := s.memo[n.id]; ok {
		return out
	}
	out := s.rewrite(n)
	s.memo[n.id] = out
	return out
}

func (s *simplifier) rewrite(n *Node) *Node {
	if len(n.children) == 0 {
		return n
	}
	if IsConstant(n) {
		if folded, ok := fold(n); ok {
			return folded
		}
	}
	children := make([]*Node, len(n.children))
	changed := false
	for i, c := range n.children {
		children[i] = s.simplify(c)
		changed = changed || children[i] != c
	}
	if changed {
		n = n.WithChildren(children...)
	}
	if out := applyIdentities(n); out != nil {
		return out
	}
	if IsConstant(n) {
		if folded, ok := fold(n); ok {
			return folded
		}
	}
	return n
}

// IsConstant reports whether n is a lowered subtree whose value does not
// depend on evaluation inputs.
func IsConstant(n *Node) bool {
	return !Any(n, func(m *Node) bool {
		switch m.kind {
		case KindTime, KindInputParameter, KindExternalVariable, KindStateVector, KindStateVectorDot:
			return true
		}
		return !m.kind.Lowered()
	})
}

func fold(n *Node) (*Node, bool) {
	v, err := Evaluate(n, EvalContext{})
	if err != nil {
		return nil, false
	}
	if r, c := v.Dims(); r == 1 && c == 1 && n.domains.Empty() {
		return NewScalar(v.At(0, 0)), true
	}
	return NewArrayWithDomains(v, n.domains), true
}

// IsZero reports whether n is a constant whose entries are all zero.
func IsZero(n *Node) bool {
	return isFilled(n, 0)
}

// IsOne reports whether n is a constant whose entries are all one.
func IsOne(n *Node) bool {
	return isFilled(n, 1)
}

func isFilled(n *Node, v float64) bool {
	switch n.kind {
	case KindScalar:
		return n.Value() == v
	case KindArray:
		m := n.Matrix()
		r, c := m.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if m.At(i, j) != v {
					return false
				}
			}
		}
		return true
	}
	return false
}

// applyIdentities returns a simpler equivalent of n, or nil. A rewrite is
// only applied when it keeps the shape of n.
func applyIdentities(n *Node) *Node {
	keep := func(m *Node) *Node {
		if m.shape == n.shape {
			return m
		}
		return nil
	}
	zeros := func() *Node {
		if !n.shape.Known() {
			return nil
		}
		return NewArrayWithDomains(mat.NewDense(n.shape.Rows, n.shape.Cols, nil), n.domains)
	}
	switch n.kind {
	case KindNegate:
		if c := n.children[0]; c.kind == KindNegate {
			return keep(c.children[0])
		}
		if IsZero(n.children[0]) {
			return n.children[0]
		}
	case KindIndex:
		if IsZero(n.children[0]) {
			return zeros()
		}
	case KindBinary:
		a, b := n.children[0], n.children[1]
		switch n.Op() {
		case OpAdd:
			if IsZero(b) {
				return keep(a)
			}
			if IsZero(a) {
				return keep(b)
			}
		case OpSub:
			if IsZero(b) {
				return keep(a)
			}
			if IsZero(a) && b.shape == n.shape {
				return Neg(b)
			}
		case OpMul:
			if IsZero(a) || IsZero(b) {
				return zeros()
			}
			if IsOne(b) {
				return keep(a)
			}
			if IsOne(a) {
				return keep(b)
			}
		case OpDiv:
			if IsZero(a) {
				return zeros()
			}
			if IsOne(b) {
				return keep(a)
			}
		case OpMatMul:
			if IsZero(a) || IsZero(b) {
				return zeros()
			}
		}
	}
	return nil
}
