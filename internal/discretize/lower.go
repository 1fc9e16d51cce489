package discretize

import (
	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/modelerr"
)

// LowerFunc lowers one node. Implementations lower the children they need
// through e.Lower.
type LowerFunc func(e *Engine, n *expr.Node) (*expr.Node, error)

var defaultLowerings = map[expr.Kind]LowerFunc{
	expr.KindScalar:         lowerLeaf,
	expr.KindArray:          lowerLeaf,
	expr.KindTime:           lowerLeaf,
	expr.KindStateVector:    lowerLeaf,
	expr.KindStateVectorDot: lowerLeaf,

	expr.KindInputParameter:   lowerSized,
	expr.KindExternalVariable: lowerSized,

	expr.KindVariable:                   lowerVariable,
	expr.KindVariableDot:                lowerVariableDot,
	expr.KindConcatenationVariable:      lowerConcatenation,
	expr.KindDomainConcatenation:        lowerConcatenation,
	expr.KindSpatialVariable:            lowerSpatialVariable,
	expr.KindBinary:                     lowerBinary,
	expr.KindNegate:                     lowerChildren,
	expr.KindAbs:                        lowerChildren,
	expr.KindIndex:                      lowerChildren,
	expr.KindFunction:                   lowerChildren,
	expr.KindNumericConcatenation:       lowerChildren,
	expr.KindGradient:                   lowerDifferential,
	expr.KindDivergence:                 lowerDifferential,
	expr.KindLaplacian:                  lowerDifferential,
	expr.KindGradientSquared:            lowerDifferential,
	expr.KindMass:                       lowerMass,
	expr.KindBoundaryMass:               lowerMass,
	expr.KindIntegral:                   lowerIntegral,
	expr.KindIndefiniteIntegral:         lowerIntegral,
	expr.KindBackwardIndefiniteIntegral: lowerIntegral,
	expr.KindDefiniteIntegralVector:     lowerDefiniteIntegralVector,
	expr.KindBoundaryIntegral:           lowerIntegral,
	expr.KindBoundaryValue:              lowerBoundaryOperator,
	expr.KindBoundaryGradient:           lowerBoundaryOperator,
	expr.KindBroadcast:                  lowerBroadcast,
	expr.KindDeltaFunction:              lowerDeltaFunction,
	expr.KindUpwind:                     lowerUpwind,
	expr.KindDownwind:                   lowerUpwind,
	expr.KindNotConstant:                lowerNotConstant,
	expr.KindXAverage:                   lowerAverage,
	expr.KindRAverage:                   lowerAverage,
	expr.KindSizeAverage:                lowerAverage,
}

// RegisterLowering sets the rule used for nodes of kind on this engine,
// replacing any existing one, and clears the lowering cache.
func (e *Engine) RegisterLowering(kind expr.Kind, fn LowerFunc) {
	e.lowerings[kind] = fn
	e.SetBoundaryConditions(e.bcs)
}

// Lower rewrites n into a tree that only refers to the state vector,
// constant matrices, time, inputs and elementwise operators. Results are
// cached by structural ID until the cache is cleared, so lowering the same
// node twice returns the same object.
func (e *Engine) Lower(n *expr.Node) (*expr.Node, error) {
	if out, ok := e.cache[n.ID()]; ok {
		e.metrics.cacheLookup(true)
		return out, nil
	}
	e.metrics.cacheLookup(false)
	fn, ok := e.lowerings[n.Kind()]
	if !ok {
		return nil, modelerr.Configurationf("no lowering rule for %s node %s", n.Kind(), n)
	}
	out, err := fn(e, n)
	if err != nil {
		return nil, err
	}
	if err := e.checkLowered(n, out); err != nil {
		return nil, err
	}
	e.cache[n.ID()] = out
	if n.HasDomain() {
		if sub, err := e.mesh.Combine(n.Domains().Primary...); err == nil {
			e.meshes[out.ID()] = sub
		}
	}
	return out, nil
}

// checkLowered verifies that out is fully lowered, has a consistent shape,
// and that a domain-bearing result spans either the nodes or the edges of
// its domains.
func (e *Engine) checkLowered(sym, out *expr.Node) error {
	if !expr.IsLowered(out) {
		return modelerr.Configurationf("lowering %s left unlowered nodes in %s", sym, out)
	}
	if err := expr.CheckShape(out); err != nil {
		return err
	}
	shape := out.Shape()
	if !shape.Known() {
		return modelerr.Shapef("lowered form %s of %s has no known shape", out, sym)
	}
	d := out.Domains()
	if d.Empty() {
		return nil
	}
	nodes, err := e.mesh.NPts(d.Primary)
	if err != nil {
		return err
	}
	repeats := 1
	for _, level := range [][]string{d.Secondary, d.Tertiary} {
		if len(level) == 0 {
			continue
		}
		k, err := e.mesh.NPts(level)
		if err != nil {
			return err
		}
		repeats *= k
	}
	if shape.Rows != repeats*nodes && shape.Rows != repeats*(nodes+1) {
		return modelerr.Shapef("lowered form of %s has %d rows, domain %s has %d nodes and %d edges",
			sym, shape.Rows, d, repeats*nodes, repeats*(nodes+1))
	}
	return nil
}

func lowerLeaf(_ *Engine, n *expr.Node) (*expr.Node, error) { return n, nil }

// lowerSized stamps the expected size on domain-bearing inputs.
func lowerSized(e *Engine, n *expr.Node) (*expr.Node, error) {
	if !n.HasDomain() || n.Size() > 0 {
		return n, nil
	}
	w, err := e.width(n)
	if err != nil {
		return nil, err
	}
	return n.WithExpectedSize(w), nil
}

func lowerVariable(e *Engine, n *expr.Node) (*expr.Node, error) {
	if ext, ok := e.externals[n.ID()]; ok {
		return ext, nil
	}
	s, ok := e.ys.Get(n)
	if !ok {
		return nil, modelerr.Configurationf("no slice set for variable %q: it must be a key of the rhs or algebraic equations, or an external variable", n.Name())
	}
	return expr.NewStateVector(n.Domains(), s...), nil
}

func lowerVariableDot(e *Engine, n *expr.Node) (*expr.Node, error) {
	v := n.Child(0)
	s, ok := e.ys.Get(v)
	if !ok {
		return nil, modelerr.Configurationf("no slice set for the time derivative of variable %q", v.Name())
	}
	return expr.NewStateVectorDot(n.Domains(), s...), nil
}

func lowerConcatenation(e *Engine, n *expr.Node) (*expr.Node, error) {
	if ext, ok := e.externals[n.ID()]; ok {
		return ext, nil
	}
	children, err := e.lowerAll(n.Children())
	if err != nil {
		return nil, err
	}
	if !n.HasDomain() {
		return expr.NewNumericConcatenation(children...), nil
	}
	method, err := e.method(n.Domains(), n)
	if err != nil {
		return nil, err
	}
	return method.Concatenation(n, children)
}

func lowerSpatialVariable(e *Engine, n *expr.Node) (*expr.Node, error) {
	method, err := e.method(n.Domains(), n)
	if err != nil {
		return nil, err
	}
	return method.SpatialVariable(n)
}

// lowerBinary folds domain-less constant operations and lets the spatial
// method reconcile node and edge operands otherwise.
func lowerBinary(e *Engine, n *expr.Node) (*expr.Node, error) {
	left, err := e.Lower(n.Child(0))
	if err != nil {
		return nil, err
	}
	right, err := e.Lower(n.Child(1))
	if err != nil {
		return nil, err
	}
	if !n.HasDomain() {
		return foldConstant(expr.NewBinary(n.Op(), left, right)), nil
	}
	method, ok := e.methods[n.Domains().Primary[0]]
	if !ok {
		return expr.NewBinary(n.Op(), left, right), nil
	}
	return method.ProcessBinary(n, left, right)
}

func lowerChildren(e *Engine, n *expr.Node) (*expr.Node, error) {
	children, err := e.lowerAll(n.Children())
	if err != nil {
		return nil, err
	}
	out := n.WithChildren(children...)
	if !n.HasDomain() {
		out = foldConstant(out)
	}
	return out, nil
}

func foldConstant(n *expr.Node) *expr.Node {
	if expr.CheckShape(n) == nil && expr.IsConstant(n) {
		return expr.Simplify(n)
	}
	return n
}

func lowerDifferential(e *Engine, n *expr.Node) (*expr.Node, error) {
	child := n.Child(0)
	disc, err := e.Lower(child)
	if err != nil {
		return nil, err
	}
	method, err := e.method(child.Domains(), n)
	if err != nil {
		return nil, err
	}
	switch n.Kind() {
	case expr.KindGradient:
		return method.Gradient(child, disc, e.bcs)
	case expr.KindDivergence:
		return method.Divergence(child, disc, e.bcs)
	case expr.KindLaplacian:
		return method.Laplacian(child, disc, e.bcs)
	default:
		return method.GradientSquared(child, disc, e.bcs)
	}
}

func lowerMass(e *Engine, n *expr.Node) (*expr.Node, error) {
	child := n.Child(0)
	method, err := e.method(child.Domains(), n)
	if err != nil {
		return nil, err
	}
	if n.Kind() == expr.KindBoundaryMass {
		m, err := method.BoundaryMassMatrix(child, e.bcs)
		if err != nil {
			return nil, err
		}
		return expr.NewArray(m), nil
	}
	m, err := method.MassMatrix(child, e.bcs)
	if err != nil {
		return nil, err
	}
	return expr.NewArray(m), nil
}

func lowerIntegral(e *Engine, n *expr.Node) (*expr.Node, error) {
	child := n.Child(0)
	disc, err := e.Lower(child)
	if err != nil {
		return nil, err
	}
	method, err := e.method(child.Domains(), n)
	if err != nil {
		return nil, err
	}
	switch n.Kind() {
	case expr.KindIndefiniteIntegral:
		return method.IndefiniteIntegral(child, disc, false)
	case expr.KindBackwardIndefiniteIntegral:
		return method.IndefiniteIntegral(child, disc, true)
	case expr.KindBoundaryIntegral:
		return method.BoundaryIntegral(child, disc, n.Label())
	default:
		return method.Integral(child, disc, n.IntegrationVars())
	}
}

func lowerDefiniteIntegralVector(e *Engine, n *expr.Node) (*expr.Node, error) {
	method, err := e.method(n.Child(0).Domains(), n)
	if err != nil {
		return nil, err
	}
	return method.DefiniteIntegralMatrix(n)
}

// lowerBoundaryOperator resolves tab sides against the mesh before handing
// the operator to the spatial method.
func lowerBoundaryOperator(e *Engine, n *expr.Node) (*expr.Node, error) {
	child := n.Child(0)
	if side := n.Side(); boundary.IsTab(side) {
		resolved, err := e.tabSide(child.Domains(), side)
		if err != nil {
			return nil, err
		}
		if n.Kind() == expr.KindBoundaryValue {
			n = expr.BoundaryValue(child, resolved)
		} else {
			n = expr.BoundaryGradient(child, resolved)
		}
	}
	disc, err := e.Lower(child)
	if err != nil {
		return nil, err
	}
	method, err := e.method(child.Domains(), n)
	if err != nil {
		return nil, err
	}
	return method.BoundaryValueOrFlux(n, disc, e.bcs)
}

func lowerBroadcast(e *Engine, n *expr.Node) (*expr.Node, error) {
	disc, err := e.Lower(n.Child(0))
	if err != nil {
		return nil, err
	}
	method, err := e.method(n.Domains(), n)
	if err != nil {
		return nil, err
	}
	return method.Broadcast(n, disc)
}

func lowerDeltaFunction(e *Engine, n *expr.Node) (*expr.Node, error) {
	disc, err := e.Lower(n.Child(0))
	if err != nil {
		return nil, err
	}
	method, err := e.method(n.Domains(), n)
	if err != nil {
		return nil, err
	}
	return method.DeltaFunction(n, disc)
}

func lowerUpwind(e *Engine, n *expr.Node) (*expr.Node, error) {
	child := n.Child(0)
	disc, err := e.Lower(child)
	if err != nil {
		return nil, err
	}
	method, err := e.method(child.Domains(), n)
	if err != nil {
		return nil, err
	}
	return method.UpwindOrDownwind(n, disc, e.bcs)
}

func lowerNotConstant(e *Engine, n *expr.Node) (*expr.Node, error) {
	return e.Lower(n.Child(0))
}

// lowerAverage rewrites an average as the ratio of two integrals over the
// child's primary domain and lowers that instead.
func lowerAverage(e *Engine, n *expr.Node) (*expr.Node, error) {
	child := n.Child(0)
	if !child.HasDomain() {
		return e.Lower(child)
	}
	primary := child.Domains().Primary
	sub, err := e.mesh.Combine(primary...)
	if err != nil {
		return nil, err
	}
	name := "x"
	if n.Kind() != expr.KindXAverage {
		name = "r"
	}
	x := expr.NewSpatialVariable(name, expr.Domains{Primary: primary}, sub.CoordSys)

	var ratio *expr.Node
	if n.Kind() == expr.KindSizeAverage {
		f := n.Child(1)
		ratio = expr.Div(expr.NewIntegral(expr.Mul(f, child), x), expr.NewIntegral(f, x))
	} else {
		ones := expr.FullBroadcast(expr.NewScalar(1), child.Domains())
		ratio = expr.Div(expr.NewIntegral(child, x), expr.NewIntegral(ones, x))
	}
	return e.Lower(ratio)
}

func (e *Engine) lowerAll(nodes []*expr.Node) ([]*expr.Node, error) {
	out := make([]*expr.Node, len(nodes))
	for i, c := range nodes {
		l, err := e.Lower(c)
		if err != nil {
			return nil, err
		}
		out[i] = l
	}
	return out, nil
}
