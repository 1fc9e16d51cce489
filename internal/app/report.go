package app

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/vk/discretego/internal/model"
	"gonum.org/v1/gonum/floats"
)

// writeReport prints the layout of a discretized model and, when its
// initial conditions can be evaluated with inputs, the initial state and
// residuals.
func writeReport(w io.Writer, dm *model.Discretized, inputs map[string][]float64) error {
	fmt.Fprintf(w, "model %q\n", dm.Name)
	fmt.Fprintf(w, "  states: %d (differential %d, algebraic %d)\n", dm.Size(), dm.LenRHS, dm.LenAlgebraic)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  VARIABLE\tSLICES\tLOWER\tUPPER")
	for _, v := range dm.YSlices.Keys() {
		slices, ok := dm.YSlices.Get(v)
		if !ok || len(slices) == 0 {
			continue
		}
		parts := make([]string, len(slices))
		for i, s := range slices {
			parts[i] = fmt.Sprintf("[%d, %d)", s.Start, s.Stop)
		}
		lower, upper := v.Bounds()
		fmt.Fprintf(tw, "  %s\t%s\t%g\t%g\n", v.Name(), strings.Join(parts, " "), lower, upper)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if dm.MassMatrix != nil {
		r, c := dm.MassMatrix.Dims()
		fmt.Fprintf(w, "  mass matrix: %dx%d\n", r, c)
	}
	if dm.Jacobian != nil {
		fmt.Fprintf(w, "  jacobian: %s\n", dm.Jacobian.Shape())
	}
	if outs := dm.Outputs.List(); len(outs) > 0 {
		names := make([]string, len(outs))
		for i, o := range outs {
			names[i] = o.Name
		}
		fmt.Fprintf(w, "  outputs: %s\n", strings.Join(names, ", "))
	}
	if len(dm.Events) > 0 {
		names := make([]string, len(dm.Events))
		for i, ev := range dm.Events {
			names[i] = fmt.Sprintf("%s (%s)", ev.Name, ev.Type)
		}
		fmt.Fprintf(w, "  events: %s\n", strings.Join(names, ", "))
	}

	y0, err := dm.InitialState(inputs)
	if err != nil || len(y0) == 0 {
		_, err = fmt.Fprintf(w, "  initial state: not evaluated: %v\n", err)
		return err
	}
	fmt.Fprintf(w, "  initial state: min %g, max %g\n", floats.Min(y0), floats.Max(y0))
	for _, res := range []struct {
		name string
		eval func(float64, []float64, map[string][]float64) ([]float64, error)
	}{
		{"rhs", dm.EvalRHS},
		{"algebraic", dm.EvalAlgebraic},
	} {
		f, err := res.eval(0, y0, inputs)
		if err != nil {
			fmt.Fprintf(w, "  %s at t=0: not evaluated: %v\n", res.name, err)
			continue
		}
		if len(f) > 0 {
			fmt.Fprintf(w, "  %s at t=0: max |f| %g\n", res.name, maxAbs(f))
		}
	}
	return nil
}

func maxAbs(f []float64) float64 {
	return math.Max(math.Abs(floats.Min(f)), math.Abs(floats.Max(f)))
}
