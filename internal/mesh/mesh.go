// Package mesh holds the discretization grids of the named domains a model
// lives on.
package mesh

import (
	"math"
	"slices"
	"strings"

	"github.com/vk/discretego/internal/modelerr"
)

// Coordinate systems.
const (
	Cartesian        = "cartesian"
	CylindricalPolar = "cylindrical polar"
	SphericalPolar   = "spherical polar"
)

// Tab sides.
const (
	NegativeTab = "negative tab"
	PositiveTab = "positive tab"
)

// ValidCoordSys reports whether c names a supported coordinate system.
func ValidCoordSys(c string) bool {
	return c == Cartesian || c == CylindricalPolar || c == SphericalPolar
}

// SubMesh is the grid of a single domain. A one-dimensional submesh has
// len(Nodes)+1 edges with one node at the centre of each cell. A
// zero-dimensional submesh is a single point.
type SubMesh struct {
	Domain   string
	Edges    []float64
	Nodes    []float64
	CoordSys string
	// Tabs maps "negative tab" and "positive tab" to "left" or "right".
	Tabs map[string]string
	Dim  int
}

// NPts returns the number of nodes.
func (s *SubMesh) NPts() int {
	if s.Dim == 0 {
		return 1
	}
	return len(s.Nodes)
}

// NEdges returns the number of edges.
func (s *SubMesh) NEdges() int {
	if s.Dim == 0 {
		return 1
	}
	return len(s.Edges)
}

// CellWidths returns the distance between consecutive edges.
func (s *SubMesh) CellWidths() []float64 {
	return diff(s.Edges)
}

// NodeSpacing returns the distance between consecutive nodes.
func (s *SubMesh) NodeSpacing() []float64 {
	return diff(s.Nodes)
}

// TabSide returns the side a tab sits on.
func (s *SubMesh) TabSide(tab string) (string, bool) {
	side, ok := s.Tabs[tab]
	return side, ok
}

func diff(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	out := make([]float64, len(x)-1)
	for i := range out {
		out[i] = x[i+1] - x[i]
	}
	return out
}

// Uniform1D returns a submesh of npts equal cells spanning [lo, hi].
func Uniform1D(domain string, lo, hi float64, npts int, coordSys string) (*SubMesh, error) {
	if npts < 1 {
		return nil, modelerr.Configurationf("domain %q needs at least one point, got %d", domain, npts)
	}
	if !(hi > lo) {
		return nil, modelerr.Configurationf("domain %q has an empty interval [%g, %g]", domain, lo, hi)
	}
	if coordSys == "" {
		coordSys = Cartesian
	}
	if !ValidCoordSys(coordSys) {
		return nil, modelerr.Configurationf("domain %q has unknown coordinate system %q", domain, coordSys)
	}
	if coordSys != Cartesian && lo < 0 {
		return nil, modelerr.Configurationf("domain %q: %s coordinates must be non-negative", domain, coordSys)
	}
	edges := make([]float64, npts+1)
	h := (hi - lo) / float64(npts)
	for i := range edges {
		edges[i] = lo + float64(i)*h
	}
	edges[npts] = hi
	nodes := make([]float64, npts)
	for i := range nodes {
		nodes[i] = (edges[i] + edges[i+1]) / 2
	}
	return &SubMesh{Domain: domain, Edges: edges, Nodes: nodes, CoordSys: coordSys, Dim: 1}, nil
}

// Point returns a zero-dimensional submesh.
func Point(domain string) *SubMesh {
	return &SubMesh{Domain: domain, Nodes: []float64{0}, CoordSys: Cartesian, Dim: 0}
}

// WithTabs sets the tab locations of a one-dimensional submesh.
func (s *SubMesh) WithTabs(tabs map[string]string) (*SubMesh, error) {
	if s.Dim != 1 {
		return nil, modelerr.Configurationf("domain %q: tabs require a one-dimensional mesh", s.Domain)
	}
	for tab, side := range tabs {
		if tab != NegativeTab && tab != PositiveTab {
			return nil, modelerr.Configurationf("domain %q: unknown tab %q", s.Domain, tab)
		}
		if side != "left" && side != "right" {
			return nil, modelerr.Configurationf("domain %q: tab %q must be on the left or right, got %q", s.Domain, tab, side)
		}
	}
	out := *s
	out.Tabs = make(map[string]string, len(tabs))
	for k, v := range tabs {
		out.Tabs[k] = v
	}
	return &out, nil
}

// Mesh is the set of submeshes of a model, in declaration order.
type Mesh struct {
	order []string
	subs  map[string]*SubMesh
}

// New returns a mesh over the given submeshes.
func New(subs ...*SubMesh) (*Mesh, error) {
	m := &Mesh{subs: make(map[string]*SubMesh, len(subs))}
	for _, s := range subs {
		if err := m.Add(s); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add registers a submesh. Domains are unique.
func (m *Mesh) Add(s *SubMesh) error {
	if _, ok := m.subs[s.Domain]; ok {
		return modelerr.Configurationf("domain %q declared twice", s.Domain)
	}
	m.order = append(m.order, s.Domain)
	m.subs[s.Domain] = s
	return nil
}

// Domains returns the registered domain names in declaration order.
func (m *Mesh) Domains() []string { return slices.Clone(m.order) }

// Has reports whether domain is registered.
func (m *Mesh) Has(domain string) bool {
	_, ok := m.subs[domain]
	return ok
}

// Get returns the submesh of domain.
func (m *Mesh) Get(domain string) (*SubMesh, error) {
	s, ok := m.subs[domain]
	if !ok {
		return nil, modelerr.Domainf("no mesh for domain %q", domain)
	}
	return s, nil
}

// NPts returns the total number of nodes over domains.
func (m *Mesh) NPts(domains []string) (int, error) {
	total := 0
	for _, d := range domains {
		s, err := m.Get(d)
		if err != nil {
			return 0, err
		}
		total += s.NPts()
	}
	return total, nil
}

// Combine joins the submeshes of adjoining one-dimensional domains into one.
// Each domain must start where the previous one ends.
func (m *Mesh) Combine(domains ...string) (*SubMesh, error) {
	if len(domains) == 0 {
		return nil, modelerr.Domainf("cannot combine an empty domain list")
	}
	first, err := m.Get(domains[0])
	if err != nil {
		return nil, err
	}
	if len(domains) == 1 {
		return first, nil
	}
	out := &SubMesh{
		Domain:   strings.Join(domains, ", "),
		Edges:    slices.Clone(first.Edges),
		Nodes:    slices.Clone(first.Nodes),
		CoordSys: first.CoordSys,
		Dim:      1,
	}
	if first.Dim != 1 {
		return nil, modelerr.Domainf("cannot combine zero-dimensional domain %q", first.Domain)
	}
	for _, d := range domains[1:] {
		next, err := m.Get(d)
		if err != nil {
			return nil, err
		}
		if next.Dim != 1 {
			return nil, modelerr.Domainf("cannot combine zero-dimensional domain %q", next.Domain)
		}
		if next.CoordSys != out.CoordSys {
			return nil, modelerr.Domainf("cannot combine %q (%s) with %q (%s)", out.Domain, out.CoordSys, next.Domain, next.CoordSys)
		}
		last := out.Edges[len(out.Edges)-1]
		if math.Abs(next.Edges[0]-last) > 1e-12*math.Max(1, math.Abs(last)) {
			return nil, modelerr.Domainf("domain %q does not adjoin %q: %g != %g", next.Domain, out.Domain, next.Edges[0], last)
		}
		out.Edges = append(out.Edges, next.Edges[1:]...)
		out.Nodes = append(out.Nodes, next.Nodes...)
	}
	return out, nil
}
