package discretize

import (
	"cmp"
	"slices"

	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/model"
	"github.com/vk/discretego/internal/modelerr"
)

// CanonicalConcat stacks the values of eqs in the order their keys appear in
// the state vector described by ys, regardless of the order of eqs. It
// returns nil for an empty mapping.
func CanonicalConcat(eqs *model.Equations, ys *model.SliceTable) (*expr.Node, error) {
	type item struct {
		start int
		value *expr.Node
	}
	items := make([]item, 0, eqs.Len())
	var err error
	eqs.Range(func(k, v *expr.Node) bool {
		start, ok := ys.Start(k)
		if !ok {
			err = modelerr.Configurationf("%q has an equation but is not an unknown of the model", k.Name())
			return false
		}
		items = append(items, item{start: start, value: v})
		return true
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	slices.SortStableFunc(items, func(a, b item) int { return cmp.Compare(a.start, b.start) })
	values := make([]*expr.Node, len(items))
	for i, it := range items {
		values[i] = it.value
	}
	return expr.NewNumericConcatenation(values...), nil
}
