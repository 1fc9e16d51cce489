package spatial

import (
	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/mesh"
	"github.com/vk/discretego/internal/modelerr"
	"gonum.org/v1/gonum/mat"
)

// extrapolationRow returns the weights extrapolating nodal values linearly
// from the two nodes nearest side onto the edge of side.
func extrapolationRow(sub *mesh.SubMesh, side string) []float64 {
	n := sub.NPts()
	row := make([]float64, n)
	if n == 1 {
		row[0] = 1
		return row
	}
	x, e := sub.Nodes, sub.Edges
	if side == boundary.Left {
		t := (e[0] - x[0]) / (x[1] - x[0])
		row[0] = 1 - t
		row[1] = t
		return row
	}
	t := (e[n] - x[n-1]) / (x[n-1] - x[n-2])
	row[n-1] = 1 + t
	row[n-2] = -t
	return row
}

func checkSide(side string) error {
	if side != boundary.Left && side != boundary.Right {
		return modelerr.Configurationf("unresolved boundary side %q", side)
	}
	return nil
}

func (fv *FiniteVolume) BoundaryValueOrFlux(sym, disc *expr.Node, bcs *boundary.Set) (*expr.Node, error) {
	child, side := sym.Child(0), sym.Side()
	if err := checkSide(side); err != nil {
		return nil, err
	}
	sub, m, err := fv.grid(child.Domains())
	if err != nil {
		return nil, err
	}
	n := sub.NPts()
	if err := expectRows(sym.Kind().String(), disc, m*n); err != nil {
		return nil, err
	}
	var bc *boundary.Condition
	if sides, ok := bcs.Get(child); ok {
		if c, ok := sides[side]; ok {
			bc = &c
		}
	}
	isValue := sym.Kind() == expr.KindBoundaryValue

	// A condition of the matching kind is the answer.
	if bc != nil && ((isValue && bc.Kind == boundary.Dirichlet) || (!isValue && bc.Kind == boundary.Neumann)) {
		return bc.Value, nil
	}

	if isValue {
		op := Repeat(m, Row(extrapolationRow(sub, side)))
		return expr.MatMul(expr.NewArray(op), disc).WithDomains(sym.Domains()), nil
	}

	x, e := sub.Nodes, sub.Edges
	row := make([]float64, n)
	if bc != nil && bc.Kind == boundary.Dirichlet {
		// One-sided difference between the node and the prescribed value.
		var h float64
		var unit *mat.Dense
		if side == boundary.Left {
			h = x[0] - e[0]
			row[0] = 1 / h
			unit = mat.NewDense(1, 1, []float64{-1 / h})
		} else {
			h = e[n] - x[n-1]
			row[n-1] = -1 / h
			unit = mat.NewDense(1, 1, []float64{1 / h})
		}
		term, err := boundaryTerm(unit, bc.Value, m)
		if err != nil {
			return nil, err
		}
		out := expr.MatMul(expr.NewArray(Repeat(m, Row(row))), disc)
		return expr.Add(out, term).WithDomains(sym.Domains()), nil
	}
	if n < 2 {
		return nil, modelerr.Configurationf("boundary gradient of %s on a single cell needs a boundary condition", child)
	}
	if side == boundary.Left {
		h := x[1] - x[0]
		row[0], row[1] = -1/h, 1/h
	} else {
		h := x[n-1] - x[n-2]
		row[n-2], row[n-1] = -1/h, 1/h
	}
	return expr.MatMul(expr.NewArray(Repeat(m, Row(row))), disc).WithDomains(sym.Domains()), nil
}

// UpwindOrDownwind returns edge values taken from the node on the upstream
// side of each edge. The inflow edge takes the Dirichlet condition on that
// side.
func (fv *FiniteVolume) UpwindOrDownwind(sym, disc *expr.Node, bcs *boundary.Set) (*expr.Node, error) {
	child := sym.Child(0)
	sub, m, err := fv.grid(child.Domains())
	if err != nil {
		return nil, err
	}
	n := sub.NPts()
	if err := expectRows(sym.Kind().String(), disc, m*n); err != nil {
		return nil, err
	}
	side, offset, edge := boundary.Left, 1, 0
	if sym.Kind() == expr.KindDownwind {
		side, offset, edge = boundary.Right, 0, n
	}
	sides, _ := bcs.Get(child)
	bc, ok := sides[side]
	if !ok || bc.Kind != boundary.Dirichlet {
		return nil, modelerr.Configurationf("%s of %s needs a Dirichlet condition on the %s", sym.Kind(), child, side)
	}
	shift := mat.NewDense(n+1, n, nil)
	for k := 0; k < n; k++ {
		shift.Set(k+offset, k, 1)
	}
	term, err := boundaryTerm(Unit(n+1, edge, 1), bc.Value, m)
	if err != nil {
		return nil, err
	}
	out := expr.MatMul(expr.NewArray(Repeat(m, shift)), disc)
	return expr.Add(out, term).WithDomains(child.Domains()), nil
}

// DeltaFunction spreads the child over the boundary cell on the delta's side
// so that its integral over the domain equals the child.
func (fv *FiniteVolume) DeltaFunction(sym, disc *expr.Node) (*expr.Node, error) {
	side := sym.Side()
	if err := checkSide(side); err != nil {
		return nil, err
	}
	sub, m, err := fv.grid(sym.Domains())
	if err != nil {
		return nil, err
	}
	n := sub.NPts()
	w := quadratureWeights(sub)
	idx := 0
	if side == boundary.Right {
		idx = n - 1
	}
	out, err := boundaryTerm(Unit(n, idx, 1/w[idx]), disc, m)
	if err != nil {
		return nil, err
	}
	return out.WithDomains(sym.Domains()), nil
}

// InternalNeumannCondition returns the gradient between the last node of
// left and the first node of right.
func (fv *FiniteVolume) InternalNeumannCondition(left, leftDisc, right, rightDisc *expr.Node) (*expr.Node, error) {
	lsub, m, err := fv.grid(left.Domains())
	if err != nil {
		return nil, err
	}
	rsub, rm, err := fv.grid(right.Domains())
	if err != nil {
		return nil, err
	}
	if m != rm {
		return nil, modelerr.Shapef("cannot join %s and %s: %d and %d auxiliary repeats", left, right, m, rm)
	}
	nl, nr := lsub.NPts(), rsub.NPts()
	if err := expectRows("internal boundary condition", leftDisc, m*nl); err != nil {
		return nil, err
	}
	if err := expectRows("internal boundary condition", rightDisc, m*nr); err != nil {
		return nil, err
	}
	last := mat.NewDense(1, nl, nil)
	last.Set(0, nl-1, 1)
	first := mat.NewDense(1, nr, nil)
	first.Set(0, 0, 1)
	dx := rsub.Nodes[0] - lsub.Nodes[nl-1]

	dy := expr.Sub(
		expr.MatMul(expr.NewArray(Repeat(m, first)), rightDisc),
		expr.MatMul(expr.NewArray(Repeat(m, last)), leftDisc),
	)
	return expr.Div(dy, expr.NewScalar(dx)).WithDomains(left.Domains().Shifted()), nil
}

// PreprocessExternalVariable gives a domain-bearing external variable
// Neumann conditions equal to its own extrapolated boundary gradients.
func (fv *FiniteVolume) PreprocessExternalVariable(v *expr.Node) (boundary.Sides, error) {
	if !v.HasDomain() {
		return nil, nil
	}
	return boundary.Sides{
		boundary.Left:  {Value: expr.BoundaryGradient(v, boundary.Left), Kind: boundary.Neumann},
		boundary.Right: {Value: expr.BoundaryGradient(v, boundary.Right), Kind: boundary.Neumann},
	}, nil
}
