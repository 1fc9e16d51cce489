package discretize

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/ctxlog"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/mesh"
	"github.com/vk/discretego/internal/model"
	"github.com/vk/discretego/internal/modelerr"
	"github.com/vk/discretego/internal/spatial"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Macroscale is a spatial-method key standing for every through-cell
// domain at once.
const Macroscale = "macroscale"

// MacroscaleDomains are the domains a Macroscale key expands to.
var MacroscaleDomains = []string{"negative electrode", "separator", "positive electrode"}

const tracerName = "github.com/vk/discretego/internal/discretize"

// Engine discretizes models on one mesh with one set of spatial methods.
type Engine struct {
	mesh    *mesh.Mesh
	methods map[string]spatial.Method

	logger  *slog.Logger
	log     *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer

	lowerings map[expr.Kind]LowerFunc

	// State of the current run.
	ys           *model.SliceTable
	lower, upper []float64
	externals    map[uint64]*expr.Node
	bcs          *boundary.Set
	cache        map[uint64]*expr.Node
	meshes       map[uint64]*mesh.SubMesh
	tabsResolved map[uint64]boundary.Sides
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Without it the engine logs to the logger
// carried by the context passed to ProcessModel.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records discretization metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer sets the tracer used for the spans of each step. The default
// comes from the global OpenTelemetry provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// New returns an engine for the given mesh and spatial methods, keyed by
// domain. A Macroscale key is expanded into MacroscaleDomains without
// overriding methods set explicitly for those domains. Every method is
// built on the mesh.
func New(m *mesh.Mesh, methods map[string]spatial.Method, opts ...Option) (*Engine, error) {
	if m == nil {
		return nil, modelerr.Configurationf("discretization needs a mesh")
	}
	table := make(map[string]spatial.Method, len(methods))
	for dom, method := range methods {
		if dom != Macroscale {
			table[dom] = method
		}
	}
	if method, ok := methods[Macroscale]; ok {
		for _, dom := range MacroscaleDomains {
			if _, explicit := table[dom]; !explicit {
				table[dom] = method
			}
		}
	}

	for _, dom := range slices.Sorted(maps.Keys(table)) {
		method := table[dom]
		if method == nil {
			return nil, modelerr.Configurationf("nil spatial method for domain %q", dom)
		}
		sub, err := m.Get(dom)
		if err != nil {
			return nil, fmt.Errorf("spatial method for domain %q: %w", dom, err)
		}
		if err := method.Build(m); err != nil {
			return nil, fmt.Errorf("building spatial method for domain %q: %w", dom, err)
		}
		switch zeroMesh := sub.Dim == 0; {
		case method.ZeroDimensional() && !zeroMesh:
			return nil, modelerr.Configurationf("zero-dimensional spatial method for domain %q requires a zero-dimensional submesh", dom)
		case !method.ZeroDimensional() && zeroMesh:
			return nil, modelerr.Configurationf("domain %q has a zero-dimensional submesh and needs a zero-dimensional spatial method", dom)
		}
	}

	e := &Engine{
		mesh:      m,
		methods:   table,
		lowerings: maps.Clone(defaultLowerings),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	e.log = e.logger
	if e.log == nil {
		e.log = slog.Default()
	}
	e.reset()
	return e, nil
}

// Mesh returns the engine's mesh.
func (e *Engine) Mesh() *mesh.Mesh { return e.mesh }

// Method returns the spatial method registered for domain.
func (e *Engine) Method(domain string) (spatial.Method, bool) {
	m, ok := e.methods[domain]
	return m, ok
}

// reset discards all state of the previous run.
func (e *Engine) reset() {
	e.ys = model.NewSliceTable()
	e.lower, e.upper = nil, nil
	e.externals = map[uint64]*expr.Node{}
	e.tabsResolved = map[uint64]boundary.Sides{}
	e.SetBoundaryConditions(boundary.NewSet())
}

// SetBoundaryConditions replaces the lowered boundary conditions used by
// gradient-like operators and clears the lowering cache.
func (e *Engine) SetBoundaryConditions(bcs *boundary.Set) {
	if bcs == nil {
		bcs = boundary.NewSet()
	}
	e.bcs = bcs
	e.cache = map[uint64]*expr.Node{}
	e.meshes = map[uint64]*mesh.SubMesh{}
}

// BoundaryConditions returns the lowered boundary conditions in use.
func (e *Engine) BoundaryConditions() *boundary.Set { return e.bcs }

// MeshOf returns the mesh of the domains a lowered node was produced for.
// It is diagnostic only.
func (e *Engine) MeshOf(lowered *expr.Node) (*mesh.SubMesh, bool) {
	sub, ok := e.meshes[lowered.ID()]
	return sub, ok
}

// method returns the spatial method of the primary domain of d. what names
// the construct for the error message.
func (e *Engine) method(d expr.Domains, what *expr.Node) (spatial.Method, error) {
	if d.Empty() {
		return nil, modelerr.Domainf("%s has no domain to pick a spatial method from", what)
	}
	m, ok := e.methods[d.Primary[0]]
	if !ok {
		return nil, modelerr.Domainf("no spatial method registered for domain %q (needed by %s)", d.Primary[0], what)
	}
	return m, nil
}

// width returns the number of state entries a variable over d occupies.
func (e *Engine) width(v *expr.Node) (int, error) {
	d := v.Domains()
	if d.Empty() {
		return 1, nil
	}
	method, err := e.variableMethod(v)
	if err != nil {
		return 0, err
	}
	n, err := e.mesh.NPts(d.Primary)
	if err != nil {
		return 0, err
	}
	m, err := method.AuxiliaryDomainRepeats(d)
	if err != nil {
		return 0, err
	}
	return n * m, nil
}

func (e *Engine) loggerFor(ctx context.Context) *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return ctxlog.FromContext(ctx)
}
