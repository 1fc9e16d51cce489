package model

import "github.com/vk/discretego/internal/expr"

// Equations maps variables to their defining expressions, keeping the order
// in which the variables were first inserted.
type Equations struct {
	index  map[uint64]int
	keys   []*expr.Node
	values []*expr.Node
}

// NewEquations returns an empty mapping.
func NewEquations() *Equations {
	return &Equations{index: map[uint64]int{}}
}

// Put sets the expression for key. Replacing an existing key keeps its
// position.
func (e *Equations) Put(key, value *expr.Node) {
	if i, ok := e.index[key.ID()]; ok {
		e.keys[i] = key
		e.values[i] = value
		return
	}
	e.index[key.ID()] = len(e.keys)
	e.keys = append(e.keys, key)
	e.values = append(e.values, value)
}

// Get returns the expression for key.
func (e *Equations) Get(key *expr.Node) (*expr.Node, bool) {
	if e == nil {
		return nil, false
	}
	i, ok := e.index[key.ID()]
	if !ok {
		return nil, false
	}
	return e.values[i], true
}

// Has reports whether key has an expression.
func (e *Equations) Has(key *expr.Node) bool {
	_, ok := e.Get(key)
	return ok
}

// Keys returns the variables in insertion order.
func (e *Equations) Keys() []*expr.Node {
	if e == nil {
		return nil
	}
	out := make([]*expr.Node, len(e.keys))
	copy(out, e.keys)
	return out
}

// Len returns the number of entries.
func (e *Equations) Len() int {
	if e == nil {
		return 0
	}
	return len(e.keys)
}

// Range calls fn for every entry in insertion order until fn returns false.
func (e *Equations) Range(fn func(key, value *expr.Node) bool) {
	if e == nil {
		return
	}
	for i, k := range e.keys {
		if !fn(k, e.values[i]) {
			return
		}
	}
}

// Clone returns a copy of the mapping. Nodes are shared.
func (e *Equations) Clone() *Equations {
	out := NewEquations()
	e.Range(func(k, v *expr.Node) bool {
		out.Put(k, v)
		return true
	})
	return out
}
