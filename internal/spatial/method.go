// Package spatial defines the per-domain discretization strategy consumed by
// the discretize engine, and provides a cell-centred finite-volume scheme and
// a zero-dimensional method.
//
// Every operation receives the symbolic operand (for its domains and its key
// in the boundary-condition set) together with its already lowered form, and
// returns a lowered expression acting on the latter.
package spatial

import (
	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/mesh"
	"gonum.org/v1/gonum/mat"
)

// Method turns spatial operators into matrices for the domains it is
// registered on.
type Method interface {
	// Build binds the method to a mesh. It is called once before any other
	// operation.
	Build(m *mesh.Mesh) error
	Mesh() *mesh.Mesh
	// ZeroDimensional reports whether the method only works on point meshes.
	ZeroDimensional() bool
	// GridConforming reports whether the mass matrix is the identity, in
	// which case it is its own inverse.
	GridConforming() bool

	SpatialVariable(sym *expr.Node) (*expr.Node, error)
	Broadcast(sym, disc *expr.Node) (*expr.Node, error)
	Gradient(sym, disc *expr.Node, bcs *boundary.Set) (*expr.Node, error)
	Divergence(sym, disc *expr.Node, bcs *boundary.Set) (*expr.Node, error)
	Laplacian(sym, disc *expr.Node, bcs *boundary.Set) (*expr.Node, error)
	GradientSquared(sym, disc *expr.Node, bcs *boundary.Set) (*expr.Node, error)
	MassMatrix(sym *expr.Node, bcs *boundary.Set) (*mat.Dense, error)
	BoundaryMassMatrix(sym *expr.Node, bcs *boundary.Set) (*mat.Dense, error)
	Integral(sym, disc *expr.Node, vars []*expr.Node) (*expr.Node, error)
	IndefiniteIntegral(sym, disc *expr.Node, backward bool) (*expr.Node, error)
	DefiniteIntegralMatrix(sym *expr.Node) (*expr.Node, error)
	BoundaryIntegral(sym, disc *expr.Node, region string) (*expr.Node, error)
	// BoundaryValueOrFlux lowers a BoundaryValue or BoundaryGradient node
	// whose child has been lowered to disc.
	BoundaryValueOrFlux(sym, disc *expr.Node, bcs *boundary.Set) (*expr.Node, error)
	// UpwindOrDownwind lowers an Upwind or Downwind node.
	UpwindOrDownwind(sym, disc *expr.Node, bcs *boundary.Set) (*expr.Node, error)
	DeltaFunction(sym, disc *expr.Node) (*expr.Node, error)
	// Concatenation combines the lowered children of a domain concatenation.
	Concatenation(sym *expr.Node, children []*expr.Node) (*expr.Node, error)
	// InternalNeumannCondition returns the flux at the seam between two
	// adjoining expressions, computed from each side's own grid.
	InternalNeumannCondition(left, leftDisc, right, rightDisc *expr.Node) (*expr.Node, error)
	// AuxiliaryDomainRepeats returns how many times the primary structure is
	// repeated over the secondary and tertiary domains of d.
	AuxiliaryDomainRepeats(d expr.Domains) (int, error)
	// ProcessBinary rebuilds a binary operator carrying a domain from its
	// lowered operands, reconciling node and edge locations.
	ProcessBinary(sym, left, right *expr.Node) (*expr.Node, error)
	// PreprocessExternalVariable returns the boundary conditions an external
	// variable needs before lowering.
	PreprocessExternalVariable(v *expr.Node) (boundary.Sides, error)
}

// auxiliaryRepeats implements Method.AuxiliaryDomainRepeats over a mesh.
func auxiliaryRepeats(m *mesh.Mesh, d expr.Domains) (int, error) {
	repeats := 1
	for _, level := range [][]string{d.Secondary, d.Tertiary} {
		if len(level) == 0 {
			continue
		}
		n, err := m.NPts(level)
		if err != nil {
			return 0, err
		}
		repeats *= n
	}
	return repeats, nil
}
