package model

import (
	"slices"

	"github.com/vk/discretego/internal/expr"
)

// SliceTable records which slices of the flat state vector belong to each
// variable, in the order the variables were laid out.
type SliceTable struct {
	index map[uint64]int
	keys  []*expr.Node
	spans [][]expr.Slice
}

// NewSliceTable returns an empty table.
func NewSliceTable() *SliceTable {
	return &SliceTable{index: map[uint64]int{}}
}

// Append adds s to the slices of v.
func (t *SliceTable) Append(v *expr.Node, s expr.Slice) {
	i, ok := t.index[v.ID()]
	if !ok {
		i = len(t.keys)
		t.index[v.ID()] = i
		t.keys = append(t.keys, v)
		t.spans = append(t.spans, nil)
	}
	t.spans[i] = append(t.spans[i], s)
}

// Get returns the slices of v.
func (t *SliceTable) Get(v *expr.Node) ([]expr.Slice, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.index[v.ID()]
	if !ok {
		return nil, false
	}
	return slices.Clone(t.spans[i]), true
}

// Start returns the first index of v in the state vector.
func (t *SliceTable) Start(v *expr.Node) (int, bool) {
	s, ok := t.Get(v)
	if !ok || len(s) == 0 {
		return 0, false
	}
	return s[0].Start, true
}

// Width returns the total number of entries owned by v.
func (t *SliceTable) Width(v *expr.Node) int {
	s, _ := t.Get(v)
	w := 0
	for _, sl := range s {
		w += sl.Width()
	}
	return w
}

// Keys returns the variables in layout order.
func (t *SliceTable) Keys() []*expr.Node {
	if t == nil {
		return nil
	}
	return slices.Clone(t.keys)
}

// Len returns the number of variables in the table.
func (t *SliceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}
