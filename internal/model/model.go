package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/modelerr"
)

// EventType tells an integrator what to do when an event expression crosses
// zero.
type EventType uint8

const (
	// Termination stops the integration.
	Termination EventType = iota
	// Discontinuity restarts the integration past a known jump.
	Discontinuity
	// Interpolant marks a point where an interpolated input changes
	// segment.
	Interpolant
)

var eventTypeNames = []string{"termination", "discontinuity", "interpolant"}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return fmt.Sprintf("EventType(%d)", t)
}

// ParseEventType parses the lower-case name of an event type.
func ParseEventType(s string) (EventType, error) {
	for i, name := range eventTypeNames {
		if strings.EqualFold(s, name) {
			return EventType(i), nil
		}
	}
	return 0, modelerr.Configurationf("unknown event type %q, expected one of %s", s, strings.Join(eventTypeNames, ", "))
}

// Event is a named expression whose zero crossing is significant.
type Event struct {
	Name string
	Expr *expr.Node
	Type EventType
}

// Output is a named expression reported alongside the solution. Domains, when
// set, is the domain the output lives on; a domain-less expression is
// broadcast onto it.
type Output struct {
	Name    string
	Expr    *expr.Node
	Domains expr.Domains
}

// Outputs keeps outputs by name in insertion order.
type Outputs struct {
	index map[string]int
	items []Output
}

// NewOutputs returns an empty collection.
func NewOutputs() *Outputs {
	return &Outputs{index: map[string]int{}}
}

// Put adds o, replacing an existing output of the same name in place.
func (o *Outputs) Put(out Output) {
	if i, ok := o.index[out.Name]; ok {
		o.items[i] = out
		return
	}
	o.index[out.Name] = len(o.items)
	o.items = append(o.items, out)
}

// Get returns the output called name.
func (o *Outputs) Get(name string) (Output, bool) {
	if o == nil {
		return Output{}, false
	}
	i, ok := o.index[name]
	if !ok {
		return Output{}, false
	}
	return o.items[i], true
}

// List returns the outputs in insertion order.
func (o *Outputs) List() []Output {
	if o == nil {
		return nil
	}
	out := make([]Output, len(o.items))
	copy(out, o.items)
	return out
}

// Len returns the number of outputs.
func (o *Outputs) Len() int {
	if o == nil {
		return 0
	}
	return len(o.items)
}

// Clone returns a copy of the collection. Expressions are shared.
func (o *Outputs) Clone() *Outputs {
	out := NewOutputs()
	for _, item := range o.List() {
		item.Domains = item.Domains.Clone()
		out.Put(item)
	}
	return out
}

// Model is a continuous-domain system waiting to be discretized.
type Model struct {
	ID   uuid.UUID
	Name string

	RHS                *Equations
	Algebraic          *Equations
	InitialConditions  *Equations
	BoundaryConditions *boundary.Set
	Outputs            *Outputs
	Events             []Event
	// ExternalVariables are variables whose values are supplied at
	// evaluation time instead of being solved for.
	ExternalVariables []*expr.Node

	discretized bool
}

// New returns an empty model with a fresh ID.
func New(name string) *Model {
	return &Model{
		ID:                 uuid.New(),
		Name:               name,
		RHS:                NewEquations(),
		Algebraic:          NewEquations(),
		InitialConditions:  NewEquations(),
		BoundaryConditions: boundary.NewSet(),
		Outputs:            NewOutputs(),
	}
}

// Copy returns an undiscretized twin of m with a new ID. Expression nodes
// are immutable and shared between the two.
func (m *Model) Copy() *Model {
	events := make([]Event, len(m.Events))
	copy(events, m.Events)
	externals := make([]*expr.Node, len(m.ExternalVariables))
	copy(externals, m.ExternalVariables)
	return &Model{
		ID:                 uuid.New(),
		Name:               m.Name,
		RHS:                m.RHS.Clone(),
		Algebraic:          m.Algebraic.Clone(),
		InitialConditions:  m.InitialConditions.Clone(),
		BoundaryConditions: m.BoundaryConditions.Clone(),
		Outputs:            m.Outputs.Clone(),
		Events:             events,
		ExternalVariables:  externals,
	}
}

// Discretized reports whether m has already been discretized.
func (m *Model) Discretized() bool { return m.discretized }

// MarkDiscretized records that m has been discretized. It fails if m was
// already marked. The discretization engine calls it once a run succeeds.
func (m *Model) MarkDiscretized() error {
	if m.discretized {
		return modelerr.Configurationf("model %q (%s) is already discretized; discretize a copy instead", m.Name, m.ID)
	}
	m.discretized = true
	return nil
}

// Unknowns returns the keys of RHS followed by those of Algebraic, each
// variable once, in declaration order.
func (m *Model) Unknowns() []*expr.Node {
	seen := map[uint64]bool{}
	var out []*expr.Node
	for _, eqs := range []*Equations{m.RHS, m.Algebraic} {
		for _, k := range eqs.Keys() {
			if seen[k.ID()] {
				continue
			}
			seen[k.ID()] = true
			out = append(out, k)
		}
	}
	return out
}
