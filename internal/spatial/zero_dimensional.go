package spatial

import (
	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/mesh"
	"github.com/vk/discretego/internal/modelerr"
	"gonum.org/v1/gonum/mat"
)

// ZeroDimensional discretizes quantities on point domains, where every
// field is a single value. Integrals, averages and boundary values are the
// identity; differential operators do not exist.
type ZeroDimensional struct {
	mesh *mesh.Mesh
}

var _ Method = (*ZeroDimensional)(nil)

// NewZeroDimensional returns an unbuilt zero-dimensional method.
func NewZeroDimensional() *ZeroDimensional { return &ZeroDimensional{} }

func (z *ZeroDimensional) Build(m *mesh.Mesh) error {
	if m == nil {
		return modelerr.Configurationf("zero-dimensional method: nil mesh")
	}
	z.mesh = m
	return nil
}

func (z *ZeroDimensional) Mesh() *mesh.Mesh      { return z.mesh }
func (z *ZeroDimensional) ZeroDimensional() bool { return true }
func (z *ZeroDimensional) GridConforming() bool  { return true }

func (z *ZeroDimensional) AuxiliaryDomainRepeats(d expr.Domains) (int, error) {
	if z.mesh == nil {
		return 0, errNotBuilt
	}
	return auxiliaryRepeats(z.mesh, d)
}

func (z *ZeroDimensional) unsupported(op string, d expr.Domains) error {
	return modelerr.Domainf("%s is not defined on the zero-dimensional domain %s", op, d)
}

func (z *ZeroDimensional) SpatialVariable(sym *expr.Node) (*expr.Node, error) {
	return nil, z.unsupported("a spatial variable", sym.Domains())
}

func (z *ZeroDimensional) Broadcast(sym, disc *expr.Node) (*expr.Node, error) {
	return disc.WithDomains(sym.Domains()), nil
}

func (z *ZeroDimensional) Gradient(sym, _ *expr.Node, _ *boundary.Set) (*expr.Node, error) {
	return nil, z.unsupported("the gradient", sym.Domains())
}

func (z *ZeroDimensional) Divergence(sym, _ *expr.Node, _ *boundary.Set) (*expr.Node, error) {
	return nil, z.unsupported("the divergence", sym.Domains())
}

func (z *ZeroDimensional) Laplacian(sym, _ *expr.Node, _ *boundary.Set) (*expr.Node, error) {
	return nil, z.unsupported("the laplacian", sym.Domains())
}

func (z *ZeroDimensional) GradientSquared(sym, _ *expr.Node, _ *boundary.Set) (*expr.Node, error) {
	return nil, z.unsupported("the squared gradient", sym.Domains())
}

func (z *ZeroDimensional) MassMatrix(sym *expr.Node, _ *boundary.Set) (*mat.Dense, error) {
	m, err := z.AuxiliaryDomainRepeats(sym.Domains())
	if err != nil {
		return nil, err
	}
	return Identity(m), nil
}

func (z *ZeroDimensional) BoundaryMassMatrix(sym *expr.Node, _ *boundary.Set) (*mat.Dense, error) {
	return nil, z.unsupported("a boundary mass matrix", sym.Domains())
}

func (z *ZeroDimensional) Integral(sym, disc *expr.Node, _ []*expr.Node) (*expr.Node, error) {
	return disc.WithDomains(sym.Domains().Shifted()), nil
}

func (z *ZeroDimensional) IndefiniteIntegral(_, disc *expr.Node, _ bool) (*expr.Node, error) {
	return disc, nil
}

func (z *ZeroDimensional) DefiniteIntegralMatrix(sym *expr.Node) (*expr.Node, error) {
	return expr.NewScalar(1), nil
}

func (z *ZeroDimensional) BoundaryIntegral(sym, disc *expr.Node, _ string) (*expr.Node, error) {
	return disc.WithDomains(sym.Domains().Shifted()), nil
}

func (z *ZeroDimensional) BoundaryValueOrFlux(sym, disc *expr.Node, _ *boundary.Set) (*expr.Node, error) {
	if sym.Kind() == expr.KindBoundaryGradient {
		return nil, z.unsupported("a boundary gradient", sym.Child(0).Domains())
	}
	return disc.WithDomains(sym.Domains()), nil
}

func (z *ZeroDimensional) UpwindOrDownwind(sym, _ *expr.Node, _ *boundary.Set) (*expr.Node, error) {
	return nil, z.unsupported(sym.Kind().String(), sym.Domains())
}

func (z *ZeroDimensional) DeltaFunction(sym, _ *expr.Node) (*expr.Node, error) {
	return nil, z.unsupported("a delta function", sym.Domains())
}

func (z *ZeroDimensional) Concatenation(sym *expr.Node, children []*expr.Node) (*expr.Node, error) {
	return expr.NewNumericConcatenation(children...).WithDomains(sym.Domains()), nil
}

func (z *ZeroDimensional) InternalNeumannCondition(left, _, _, _ *expr.Node) (*expr.Node, error) {
	return nil, z.unsupported("an internal boundary condition", left.Domains())
}

func (z *ZeroDimensional) ProcessBinary(sym, left, right *expr.Node) (*expr.Node, error) {
	return expr.NewBinary(sym.Op(), left, right), nil
}

func (z *ZeroDimensional) PreprocessExternalVariable(*expr.Node) (boundary.Sides, error) {
	return nil, nil
}
