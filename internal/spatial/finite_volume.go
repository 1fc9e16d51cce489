package spatial

import (
	"math"
	"slices"

	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/mesh"
	"github.com/vk/discretego/internal/modelerr"
	"gonum.org/v1/gonum/mat"
)

// FiniteVolume is a cell-centred finite-volume scheme on one-dimensional
// submeshes. Unknowns live on nodes (cell centres) and fluxes on edges.
// Quantities with auxiliary domains are stored as consecutive copies of the
// primary grid, one per auxiliary point, and every operator is repeated
// block-diagonally over them.
type FiniteVolume struct {
	mesh *mesh.Mesh
}

var _ Method = (*FiniteVolume)(nil)

// NewFiniteVolume returns an unbuilt finite-volume method.
func NewFiniteVolume() *FiniteVolume { return &FiniteVolume{} }

func (fv *FiniteVolume) Build(m *mesh.Mesh) error {
	if m == nil {
		return modelerr.Configurationf("finite volumes: nil mesh")
	}
	fv.mesh = m
	return nil
}

func (fv *FiniteVolume) Mesh() *mesh.Mesh      { return fv.mesh }
func (fv *FiniteVolume) ZeroDimensional() bool { return false }
func (fv *FiniteVolume) GridConforming() bool  { return true }

func (fv *FiniteVolume) AuxiliaryDomainRepeats(d expr.Domains) (int, error) {
	if fv.mesh == nil {
		return 0, errNotBuilt
	}
	return auxiliaryRepeats(fv.mesh, d)
}

var errNotBuilt = modelerr.Configurationf("spatial method used before Build")

// grid returns the combined primary submesh of d and the number of
// auxiliary repeats.
func (fv *FiniteVolume) grid(d expr.Domains) (*mesh.SubMesh, int, error) {
	if fv.mesh == nil {
		return nil, 0, errNotBuilt
	}
	if d.Empty() {
		return nil, 0, modelerr.Domainf("finite volumes cannot discretize a domain-less expression")
	}
	sub, err := fv.mesh.Combine(d.Primary...)
	if err != nil {
		return nil, 0, err
	}
	if sub.Dim != 1 {
		return nil, 0, modelerr.Domainf("finite volumes need a one-dimensional mesh, %q is a point", sub.Domain)
	}
	m, err := auxiliaryRepeats(fv.mesh, d)
	if err != nil {
		return nil, 0, err
	}
	return sub, m, nil
}

func expectRows(what string, n *expr.Node, rows int) error {
	if got := n.Shape().Rows; got != rows {
		return modelerr.Shapef("%s expects %d rows, %s has %d", what, rows, n, got)
	}
	return nil
}

// boundaryTerm places value at the position marked by e in every auxiliary
// repeat. value holds either one entry per repeat or a single entry shared
// by all of them.
func boundaryTerm(e *mat.Dense, value *expr.Node, m int) (*expr.Node, error) {
	block := Repeat(m, e)
	switch rows := value.Shape().Rows; {
	case rows == m:
		return expr.MatMul(expr.NewArray(block), value), nil
	case rows == 1:
		var col mat.Dense
		col.Mul(block, Ones(m, 1))
		return expr.MatMul(expr.NewArray(&col), value), nil
	default:
		return nil, modelerr.Shapef("boundary value %s has %d rows, expected 1 or %d", value, rows, m)
	}
}

func (fv *FiniteVolume) SpatialVariable(sym *expr.Node) (*expr.Node, error) {
	sub, m, err := fv.grid(sym.Domains())
	if err != nil {
		return nil, err
	}
	x := mat.NewDense(sub.NPts(), 1, slices.Clone(sub.Nodes))
	return expr.NewArrayWithDomains(Kron(Ones(m, 1), x), sym.Domains()), nil
}

func (fv *FiniteVolume) Broadcast(sym, disc *expr.Node) (*expr.Node, error) {
	d := sym.Domains()
	sub, m, err := fv.grid(d)
	if err != nil {
		return nil, err
	}
	n := sub.NPts()
	k := disc.Shape().Rows
	if k == 1 {
		return expr.MatMul(expr.NewArray(Ones(m*n, 1)), disc).WithDomains(d), nil
	}
	var op *mat.Dense
	switch sym.BroadcastType() {
	case expr.BroadcastPrimary, expr.BroadcastFull:
		if k != m {
			return nil, modelerr.Shapef("cannot broadcast %s with %d rows over %s (%d repeats)", sym.Child(0), k, d, m)
		}
		op = Kron(Identity(m), Ones(n, 1))
	case expr.BroadcastSecondary:
		ms, err := fv.mesh.NPts(d.Secondary)
		if err != nil {
			return nil, err
		}
		mt := 1
		if len(d.Tertiary) > 0 {
			if mt, err = fv.mesh.NPts(d.Tertiary); err != nil {
				return nil, err
			}
		}
		if k != mt*n {
			return nil, modelerr.Shapef("cannot broadcast %s with %d rows to %s", sym.Child(0), k, d)
		}
		op = Repeat(mt, Kron(Ones(ms, 1), Identity(n)))
	default:
		return nil, modelerr.Configurationf("unknown broadcast type %s", sym.BroadcastType())
	}
	return expr.MatMul(expr.NewArray(op), disc).WithDomains(d), nil
}

// gradient returns the edge values of the gradient of sym, including the
// contribution of its boundary conditions.
func (fv *FiniteVolume) gradient(sym, disc *expr.Node, bcs *boundary.Set) (*expr.Node, error) {
	sub, m, err := fv.grid(sym.Domains())
	if err != nil {
		return nil, err
	}
	n := sub.NPts()
	if err := expectRows("gradient", disc, m*n); err != nil {
		return nil, err
	}
	sides, ok := bcs.Get(sym)
	if !ok {
		return nil, modelerr.Configurationf("gradient of %s needs boundary conditions", sym)
	}
	left, lok := sides[boundary.Left]
	right, rok := sides[boundary.Right]
	if !lok || !rok {
		return nil, modelerr.Configurationf("gradient of %s needs conditions on both the left and right", sym)
	}

	x, e := sub.Nodes, sub.Edges
	g := mat.NewDense(n+1, n, nil)
	for k := 1; k < n; k++ {
		h := x[k] - x[k-1]
		g.Set(k, k-1, -1/h)
		g.Set(k, k, 1/h)
	}
	var leftE, rightE *mat.Dense
	switch left.Kind {
	case boundary.Dirichlet:
		// Ghost node mirrored through the left edge.
		h := x[0] - e[0]
		g.Set(0, 0, 1/h)
		leftE = Unit(n+1, 0, -1/h)
	case boundary.Neumann:
		leftE = Unit(n+1, 0, 1)
	}
	switch right.Kind {
	case boundary.Dirichlet:
		h := e[n] - x[n-1]
		g.Set(n, n-1, -1/h)
		rightE = Unit(n+1, n, 1/h)
	case boundary.Neumann:
		rightE = Unit(n+1, n, 1)
	}
	if leftE == nil || rightE == nil {
		return nil, modelerr.Configurationf("gradient of %s has a condition of unknown kind", sym)
	}

	out := expr.MatMul(expr.NewArray(Repeat(m, g)), disc)
	lt, err := boundaryTerm(leftE, left.Value, m)
	if err != nil {
		return nil, err
	}
	rt, err := boundaryTerm(rightE, right.Value, m)
	if err != nil {
		return nil, err
	}
	return expr.Add(expr.Add(out, lt), rt).WithDomains(sym.Domains()), nil
}

func (fv *FiniteVolume) Gradient(sym, disc *expr.Node, bcs *boundary.Set) (*expr.Node, error) {
	return fv.gradient(sym, disc, bcs)
}

func (fv *FiniteVolume) Divergence(sym, disc *expr.Node, _ *boundary.Set) (*expr.Node, error) {
	sub, m, err := fv.grid(sym.Domains())
	if err != nil {
		return nil, err
	}
	n := sub.NPts()
	if err := expectRows("divergence", disc, m*(n+1)); err != nil {
		return nil, err
	}
	e := sub.Edges
	div := mat.NewDense(n, n+1, nil)
	for k := 0; k < n; k++ {
		a, b := e[k], e[k+1]
		switch sub.CoordSys {
		case mesh.CylindricalPolar:
			vol := (b*b - a*a) / 2
			div.Set(k, k, -a/vol)
			div.Set(k, k+1, b/vol)
		case mesh.SphericalPolar:
			vol := (b*b*b - a*a*a) / 3
			div.Set(k, k, -a*a/vol)
			div.Set(k, k+1, b*b/vol)
		default:
			div.Set(k, k, -1/(b-a))
			div.Set(k, k+1, 1/(b-a))
		}
	}
	return expr.MatMul(expr.NewArray(Repeat(m, div)), disc).WithDomains(sym.Domains()), nil
}

func (fv *FiniteVolume) Laplacian(sym, disc *expr.Node, bcs *boundary.Set) (*expr.Node, error) {
	grad, err := fv.gradient(sym, disc, bcs)
	if err != nil {
		return nil, err
	}
	return fv.Divergence(sym, grad, bcs)
}

// GradientSquared returns the squared gradient averaged from edges to nodes.
func (fv *FiniteVolume) GradientSquared(sym, disc *expr.Node, bcs *boundary.Set) (*expr.Node, error) {
	grad, err := fv.gradient(sym, disc, bcs)
	if err != nil {
		return nil, err
	}
	sub, m, _ := fv.grid(sym.Domains())
	n := sub.NPts()
	avg := mat.NewDense(n, n+1, nil)
	for k := 0; k < n; k++ {
		avg.Set(k, k, 0.5)
		avg.Set(k, k+1, 0.5)
	}
	sq := expr.Pow(grad, expr.NewScalar(2))
	return expr.MatMul(expr.NewArray(Repeat(m, avg)), sq).WithDomains(sym.Domains()), nil
}

func (fv *FiniteVolume) MassMatrix(sym *expr.Node, _ *boundary.Set) (*mat.Dense, error) {
	sub, m, err := fv.grid(sym.Domains())
	if err != nil {
		return nil, err
	}
	return Identity(m * sub.NPts()), nil
}

func (fv *FiniteVolume) BoundaryMassMatrix(sym *expr.Node, _ *boundary.Set) (*mat.Dense, error) {
	return nil, modelerr.Domainf("finite volumes have no boundary mass matrix for %s", sym.Domains())
}

// quadratureWeights returns the cell volumes of sub in its coordinate system.
func quadratureWeights(sub *mesh.SubMesh) []float64 {
	dx := sub.CellWidths()
	w := make([]float64, len(dx))
	for k, h := range dx {
		r := sub.Nodes[k]
		switch sub.CoordSys {
		case mesh.CylindricalPolar:
			w[k] = 2 * math.Pi * r * h
		case mesh.SphericalPolar:
			w[k] = 4 * math.Pi * r * r * h
		default:
			w[k] = h
		}
	}
	return w
}

func (fv *FiniteVolume) Integral(sym, disc *expr.Node, vars []*expr.Node) (*expr.Node, error) {
	d := sym.Domains()
	for _, v := range vars {
		if v.Kind() != expr.KindSpatialVariable {
			return nil, modelerr.Configurationf("integration variable %s is not a spatial variable", v)
		}
		if !slices.Equal(v.Domains().Primary, d.Primary) {
			return nil, modelerr.Domainf("cannot integrate %s over %s: only the primary domain %v is supported",
				sym, v.Domains(), d.Primary)
		}
	}
	sub, m, err := fv.grid(d)
	if err != nil {
		return nil, err
	}
	if err := expectRows("integral", disc, m*sub.NPts()); err != nil {
		return nil, err
	}
	row := Row(quadratureWeights(sub))
	return expr.MatMul(expr.NewArray(Repeat(m, row)), disc).WithDomains(d.Shifted()), nil
}

// IndefiniteIntegral integrates nodal values cell by cell, giving one value
// per edge. The forward integral is zero on the left edge, the backward one
// on the right edge.
func (fv *FiniteVolume) IndefiniteIntegral(sym, disc *expr.Node, backward bool) (*expr.Node, error) {
	sub, m, err := fv.grid(sym.Domains())
	if err != nil {
		return nil, err
	}
	if sub.CoordSys != mesh.Cartesian {
		return nil, modelerr.Domainf("indefinite integrals need cartesian coordinates, %q is %s", sub.Domain, sub.CoordSys)
	}
	n := sub.NPts()
	if err := expectRows("indefinite integral", disc, m*n); err != nil {
		return nil, err
	}
	dx := sub.CellWidths()
	op := mat.NewDense(n+1, n, nil)
	for k := 0; k <= n; k++ {
		for j := 0; j < n; j++ {
			if (!backward && j < k) || (backward && j >= k) {
				op.Set(k, j, dx[j])
			}
		}
	}
	return expr.MatMul(expr.NewArray(Repeat(m, op)), disc).WithDomains(sym.Domains()), nil
}

func (fv *FiniteVolume) DefiniteIntegralMatrix(sym *expr.Node) (*expr.Node, error) {
	v := sym.Child(0)
	sub, m, err := fv.grid(v.Domains())
	if err != nil {
		return nil, err
	}
	w := Repeat(m, Row(quadratureWeights(sub)))
	switch sym.Label() {
	case expr.RowVector:
		return expr.NewArray(w), nil
	case expr.ColumnVector:
		return expr.NewArray(mat.DenseCopyOf(w.T())), nil
	}
	return nil, modelerr.Configurationf("definite integral vector must be a row or column, got %q", sym.Label())
}

func (fv *FiniteVolume) BoundaryIntegral(sym, _ *expr.Node, region string) (*expr.Node, error) {
	return nil, modelerr.Domainf("finite volumes cannot integrate %s over the %q boundary", sym, region)
}

// Concatenation interleaves the children so that each auxiliary repeat holds
// one copy of the full primary grid.
func (fv *FiniteVolume) Concatenation(sym *expr.Node, children []*expr.Node) (*expr.Node, error) {
	if fv.mesh == nil {
		return nil, errNotBuilt
	}
	if len(children) != sym.NumChildren() {
		return nil, modelerr.Configurationf("concatenation %s has %d children, got %d lowered", sym, sym.NumChildren(), len(children))
	}
	m, err := auxiliaryRepeats(fv.mesh, sym.Domains())
	if err != nil {
		return nil, err
	}
	widths := make([]int, len(children))
	total := 0
	for i, c := range children {
		n, err := fv.mesh.NPts(sym.Child(i).Domains().Primary)
		if err != nil {
			return nil, err
		}
		if err := expectRows("concatenation child", c, m*n); err != nil {
			return nil, err
		}
		widths[i] = n
		total += n
	}
	stacked := expr.NewNumericConcatenation(children...)
	if m == 1 {
		return stacked.WithDomains(sym.Domains()), nil
	}
	perm := mat.NewDense(m*total, m*total, nil)
	base, offset := 0, 0
	for _, n := range widths {
		for j := 0; j < m; j++ {
			for r := 0; r < n; r++ {
				perm.Set(j*total+offset+r, base+j*n+r, 1)
			}
		}
		base += m * n
		offset += n
	}
	return expr.MatMul(expr.NewArray(perm), stacked).WithDomains(sym.Domains()), nil
}

// nodeToEdge returns the operator interpolating nodal values onto edges,
// extrapolating linearly at both ends.
func nodeToEdge(sub *mesh.SubMesh) *mat.Dense {
	n := sub.NPts()
	op := mat.NewDense(n+1, n, nil)
	if n == 1 {
		op.Set(0, 0, 1)
		op.Set(1, 0, 1)
		return op
	}
	for k := 1; k < n; k++ {
		op.Set(k, k-1, 0.5)
		op.Set(k, k, 0.5)
	}
	op.SetRow(0, extrapolationRow(sub, boundary.Left))
	op.SetRow(n, extrapolationRow(sub, boundary.Right))
	return op
}

func (fv *FiniteVolume) ProcessBinary(sym, left, right *expr.Node) (*expr.Node, error) {
	op := sym.Op()
	lr, rr := left.Shape().Rows, right.Shape().Rows
	if op == expr.OpMatMul || lr == rr || lr <= 1 || rr <= 1 {
		return expr.NewBinary(op, left, right), nil
	}
	sub, m, err := fv.grid(sym.Domains())
	if err != nil {
		return nil, err
	}
	nodes, edges := m*sub.NPts(), m*(sub.NPts()+1)
	toEdges := expr.NewArray(Repeat(m, nodeToEdge(sub)))
	switch {
	case lr == nodes && rr == edges:
		left = expr.MatMul(toEdges, left)
	case lr == edges && rr == nodes:
		right = expr.MatMul(toEdges, right)
	}
	return expr.NewBinary(op, left, right), nil
}
