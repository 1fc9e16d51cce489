package discretize

import (
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/model"
	"github.com/vk/discretego/internal/modelerr"
	"github.com/vk/discretego/internal/spatial"
)

// SetVariableSlices lays vars out, in order, in one flat state vector and
// fills the bound arrays. A variable with auxiliary domains gets one slice
// per repeat. The children of a concatenated variable get slices of their
// own inside each repeat of their parent, so expressions can address either.
func (e *Engine) SetVariableSlices(vars []*expr.Node) error {
	ys := model.NewSliceTable()
	var lower, upper []float64
	start := 0
	for _, v := range vars {
		var width int
		switch v.Kind() {
		case expr.KindConcatenationVariable:
			w, err := e.layoutConcatenation(ys, v, start)
			if err != nil {
				return err
			}
			width = w
		case expr.KindVariable:
			w, err := e.layoutVariable(ys, v, start)
			if err != nil {
				return err
			}
			width = w
		default:
			return modelerr.Configurationf("unknown %s is a %s, not a variable", v, v.Kind())
		}
		lo, hi := v.Bounds()
		for k := 0; k < width; k++ {
			lower = append(lower, lo)
			upper = append(upper, hi)
		}
		e.log.Debug("Laid out variable.", "variable", v.Name(), "start", start, "width", width)
		start += width
	}
	e.ys, e.lower, e.upper = ys, lower, upper
	return nil
}

func (e *Engine) layoutVariable(ys *model.SliceTable, v *expr.Node, start int) (int, error) {
	if !v.HasDomain() {
		ys.Append(v, expr.Slice{Start: start, Stop: start + 1})
		return 1, nil
	}
	method, err := e.variableMethod(v)
	if err != nil {
		return 0, err
	}
	n, err := e.mesh.NPts(v.Domains().Primary)
	if err != nil {
		return 0, err
	}
	m, err := method.AuxiliaryDomainRepeats(v.Domains())
	if err != nil {
		return 0, err
	}
	for j := 0; j < m; j++ {
		ys.Append(v, expr.Slice{Start: start + j*n, Stop: start + (j+1)*n})
	}
	return n * m, nil
}

// layoutConcatenation places each repeat of the parent as the children's
// primary grids side by side.
func (e *Engine) layoutConcatenation(ys *model.SliceTable, v *expr.Node, start int) (int, error) {
	method, err := e.variableMethod(v)
	if err != nil {
		return 0, err
	}
	m, err := method.AuxiliaryDomainRepeats(v.Domains())
	if err != nil {
		return 0, err
	}
	widths := make([]int, v.NumChildren())
	total := 0
	for i, c := range v.Children() {
		n, err := e.mesh.NPts(c.Domains().Primary)
		if err != nil {
			return 0, err
		}
		widths[i] = n
		total += n
	}
	for j := 0; j < m; j++ {
		off := start + j*total
		ys.Append(v, expr.Slice{Start: off, Stop: off + total})
		for i, c := range v.Children() {
			ys.Append(c, expr.Slice{Start: off, Stop: off + widths[i]})
			off += widths[i]
		}
	}
	return m * total, nil
}

func (e *Engine) variableMethod(v *expr.Node) (spatial.Method, error) {
	d := v.Domains()
	if d.Empty() {
		return nil, modelerr.Configurationf("variable %q has no domain", v.Name())
	}
	method, ok := e.methods[d.Primary[0]]
	if !ok {
		return nil, modelerr.Domainf("no spatial method registered for domain %q of variable %q", d.Primary[0], v.Name())
	}
	return method, nil
}

// YSlices returns the layout of the current run.
func (e *Engine) YSlices() *model.SliceTable { return e.ys }

// Bounds returns the lower and upper bound of every state entry.
func (e *Engine) Bounds() (lower, upper []float64) { return e.lower, e.upper }
