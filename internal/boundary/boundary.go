// Package boundary holds boundary conditions keyed by the variable (or
// expression) they constrain.
package boundary

import (
	"github.com/vk/discretego/internal/expr"
)

// Sides.
const (
	Left        = "left"
	Right       = "right"
	NegativeTab = "negative tab"
	PositiveTab = "positive tab"
	NoTab       = "no tab"
)

// IsTab reports whether side names a tab rather than an end of the domain.
func IsTab(side string) bool {
	return side == NegativeTab || side == PositiveTab || side == NoTab
}

// Kind is the type of a boundary condition.
type Kind uint8

const (
	Dirichlet Kind = iota + 1
	Neumann
)

func (k Kind) String() string {
	switch k {
	case Dirichlet:
		return "Dirichlet"
	case Neumann:
		return "Neumann"
	}
	return "unknown"
}

// ParseKind parses "dirichlet" or "neumann" in any case.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "Dirichlet", "dirichlet":
		return Dirichlet, true
	case "Neumann", "neumann":
		return Neumann, true
	}
	return 0, false
}

// Condition is the value (Dirichlet) or outward flux (Neumann) prescribed on
// a side.
type Condition struct {
	Value *expr.Node
	Kind  Kind
}

// Sides maps side names to conditions.
type Sides map[string]Condition

// Clone returns a shallow copy. Conditions share their value nodes.
func (s Sides) Clone() Sides {
	out := make(Sides, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

type entry struct {
	key   *expr.Node
	sides Sides
}

// Set maps expressions to their boundary conditions. Keys are matched by
// structural identity and iterate in insertion order.
type Set struct {
	index   map[uint64]int
	entries []entry
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{index: make(map[uint64]int)}
}

// Put sets the conditions of key, replacing any previous ones while keeping
// the original insertion position.
func (s *Set) Put(key *expr.Node, sides Sides) {
	if i, ok := s.index[key.ID()]; ok {
		s.entries[i].sides = sides
		return
	}
	s.index[key.ID()] = len(s.entries)
	s.entries = append(s.entries, entry{key: key, sides: sides})
}

// Get returns the conditions of key.
func (s *Set) Get(key *expr.Node) (Sides, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[key.ID()]
	if !ok {
		return nil, false
	}
	return s.entries[i].sides, true
}

// Has reports whether key has conditions.
func (s *Set) Has(key *expr.Node) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (s *Set) Keys() []*expr.Node {
	if s == nil {
		return nil
	}
	out := make([]*expr.Node, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.key
	}
	return out
}

// Len returns the number of keys.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Clone returns a copy whose per-key side maps are independent of s.
func (s *Set) Clone() *Set {
	out := NewSet()
	if s == nil {
		return out
	}
	for _, e := range s.entries {
		out.Put(e.key, e.sides.Clone())
	}
	return out
}
