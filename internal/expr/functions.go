package expr

import (
	"math"
	"sort"
)

// Func is an opaque elementwise callable. Diff, when set, returns the partial
// derivative of the call with respect to argument i as an expression over the
// same arguments; functions without it cannot be differentiated.
type Func struct {
	Name string
	Eval func(args ...float64) float64
	Diff func(i int, args []*Node) *Node
}

// Call applies f to args.
func (f *Func) Call(args ...*Node) *Node { return Apply(f, args...) }

func unary(name string, eval func(float64) float64) *Func {
	return &Func{Name: name, Eval: func(a ...float64) float64 { return eval(a[0]) }}
}

var (
	FuncExp  = unary("exp", math.Exp)
	FuncLog  = unary("log", math.Log)
	FuncSin  = unary("sin", math.Sin)
	FuncCos  = unary("cos", math.Cos)
	FuncTanh = unary("tanh", math.Tanh)
	FuncSinh = unary("sinh", math.Sinh)
	FuncCosh = unary("cosh", math.Cosh)
	FuncSqrt = unary("sqrt", math.Sqrt)
	FuncSign = unary("sign", func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	})
	// FuncHeaviside is 1 where its argument is non-negative and 0 elsewhere.
	FuncHeaviside = unary("heaviside", func(x float64) float64 {
		if x >= 0 {
			return 1
		}
		return 0
	})
)

var standardFuncs = map[string]*Func{}

func init() {
	// Derivatives refer back to the function table, so they are attached here
	// rather than in the declarations.
	FuncExp.Diff = func(_ int, a []*Node) *Node { return Apply(FuncExp, a[0]) }
	FuncLog.Diff = func(_ int, a []*Node) *Node { return Div(NewScalar(1), a[0]) }
	FuncSin.Diff = func(_ int, a []*Node) *Node { return Apply(FuncCos, a[0]) }
	FuncCos.Diff = func(_ int, a []*Node) *Node { return Neg(Apply(FuncSin, a[0])) }
	FuncTanh.Diff = func(_ int, a []*Node) *Node {
		return Sub(NewScalar(1), Pow(Apply(FuncTanh, a[0]), NewScalar(2)))
	}
	FuncSinh.Diff = func(_ int, a []*Node) *Node { return Apply(FuncCosh, a[0]) }
	FuncCosh.Diff = func(_ int, a []*Node) *Node { return Apply(FuncSinh, a[0]) }
	FuncSqrt.Diff = func(_ int, a []*Node) *Node { return Div(NewScalar(0.5), Apply(FuncSqrt, a[0])) }
	FuncSign.Diff = func(int, []*Node) *Node { return NewScalar(0) }
	FuncHeaviside.Diff = func(int, []*Node) *Node { return NewScalar(0) }

	for _, f := range []*Func{FuncExp, FuncLog, FuncSin, FuncCos, FuncTanh, FuncSinh, FuncCosh, FuncSqrt, FuncSign, FuncHeaviside} {
		standardFuncs[f.Name] = f
	}
}

// LookupFunc returns the standard one-argument function called name.
func LookupFunc(name string) (*Func, bool) {
	f, ok := standardFuncs[name]
	return f, ok
}

// FuncNames returns the names of the standard functions in sorted order.
func FuncNames() []string {
	names := make([]string, 0, len(standardFuncs))
	for name := range standardFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
