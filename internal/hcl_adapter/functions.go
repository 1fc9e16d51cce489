package hcl_adapter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/discretego/internal/expr"
	"github.com/zclconf/go-cty/cty"
)

// argKind says how a function argument is translated.
type argKind uint8

const (
	argNode argKind = iota
	argString
	argStrings
	argSpatial
)

// builtin is a function callable from an equation.
type builtin struct {
	args  []argKind
	build func(a arguments) *expr.Node
}

// arguments are the translated arguments of a call, by position.
type arguments struct {
	nodes   []*expr.Node
	strings [][]string
}

func (a arguments) node(i int) *expr.Node { return a.nodes[i] }
func (a arguments) str(i int) string      { return a.strings[i][0] }
func (a arguments) list(i int) []string   { return a.strings[i] }

func unaryOp(fn func(*expr.Node) *expr.Node) builtin {
	return builtin{args: []argKind{argNode}, build: func(a arguments) *expr.Node { return fn(a.node(0)) }}
}

func binaryOp(fn func(a, b *expr.Node) *expr.Node) builtin {
	return builtin{args: []argKind{argNode, argNode}, build: func(a arguments) *expr.Node { return fn(a.node(0), a.node(1)) }}
}

func integralOp(fn func(child, v *expr.Node) *expr.Node) builtin {
	return builtin{args: []argKind{argNode, argSpatial}, build: func(a arguments) *expr.Node { return fn(a.node(0), a.node(1)) }}
}

func sideOp(fn func(child *expr.Node, side string) *expr.Node) builtin {
	return builtin{args: []argKind{argNode, argString}, build: func(a arguments) *expr.Node { return fn(a.node(0), a.str(1)) }}
}

var builtins = map[string]builtin{
	"grad":         unaryOp(expr.Grad),
	"div":          unaryOp(expr.Divergence),
	"laplacian":    unaryOp(expr.Laplacian),
	"grad_squared": unaryOp(expr.GradSquared),
	"upwind":       unaryOp(expr.Upwind),
	"downwind":     unaryOp(expr.Downwind),
	"x_average":    unaryOp(expr.XAverage),
	"r_average":    unaryOp(expr.RAverage),
	"abs":          unaryOp(expr.Abs),
	"not_constant": unaryOp(expr.NotConstant),

	"pow": binaryOp(expr.Pow),
	"min": binaryOp(expr.Minimum),
	"max": binaryOp(expr.Maximum),

	"integral": integralOp(func(child, v *expr.Node) *expr.Node {
		return expr.NewIntegral(child, v)
	}),
	"indefinite_integral":          integralOp(expr.NewIndefiniteIntegral),
	"backward_indefinite_integral": integralOp(expr.NewBackwardIndefiniteIntegral),

	"boundary_value":    sideOp(expr.BoundaryValue),
	"boundary_flux":     sideOp(expr.BoundaryGradient),
	"boundary_integral": sideOp(expr.NewBoundaryIntegral),

	"broadcast": {
		args:  []argKind{argNode, argStrings},
		build: func(a arguments) *expr.Node { return expr.PrimaryBroadcast(a.node(0), a.list(1)...) },
	},
	"secondary_broadcast": {
		args:  []argKind{argNode, argStrings},
		build: func(a arguments) *expr.Node { return expr.SecondaryBroadcast(a.node(0), a.list(1)...) },
	},
	"full_broadcast": {
		args:  []argKind{argNode, argStrings},
		build: func(a arguments) *expr.Node { return expr.FullBroadcast(a.node(0), expr.On(a.list(1)...)) },
	},
	"delta": {
		args: []argKind{argNode, argString, argStrings},
		build: func(a arguments) *expr.Node {
			return expr.NewDeltaFunction(a.node(0), a.str(1), expr.On(a.list(2)...))
		},
	},
}

// FunctionNames returns every function an equation may call, in sorted
// order.
func FunctionNames() []string {
	names := []string{"concat"}
	for name := range builtins {
		names = append(names, name)
	}
	names = append(names, expr.FuncNames()...)
	slices.Sort(names)
	return names
}

// call translates a function call.
func (s *scope) call(e *hclsyntax.FunctionCallExpr) (*expr.Node, hcl.Diagnostics) {
	if e.Name == "concat" {
		return s.concat(e)
	}
	if f, ok := expr.LookupFunc(e.Name); ok {
		if len(e.Args) != 1 {
			return nil, errorAt(e, "Wrong number of arguments", fmt.Sprintf("%s takes exactly one argument", e.Name))
		}
		arg, diags := s.node(e.Args[0])
		if diags.HasErrors() {
			return nil, diags
		}
		return f.Call(arg), nil
	}
	if _, ok := builtinBoundaryKinds[e.Name]; ok {
		return nil, errorAt(e, "Misplaced boundary condition", fmt.Sprintf("%s(...) is only valid as a side of a boundary_conditions block", e.Name))
	}
	b, ok := builtins[e.Name]
	if !ok {
		return nil, errorAt(e, "Unknown function", fmt.Sprintf("there is no function named '%s'; available: %s", e.Name, strings.Join(FunctionNames(), ", ")))
	}
	if len(e.Args) != len(b.args) {
		return nil, errorAt(e, "Wrong number of arguments", fmt.Sprintf("%s takes %d arguments, got %d", e.Name, len(b.args), len(e.Args)))
	}

	args := arguments{
		nodes:   make([]*expr.Node, len(b.args)),
		strings: make([][]string, len(b.args)),
	}
	for i, kind := range b.args {
		switch kind {
		case argNode, argSpatial:
			n, diags := s.node(e.Args[i])
			if diags.HasErrors() {
				return nil, diags
			}
			if kind == argSpatial && n.Kind() != expr.KindSpatialVariable {
				return nil, errorAt(e.Args[i], "Invalid argument", fmt.Sprintf("argument %d of %s must be a spatial variable", i+1, e.Name))
			}
			args.nodes[i] = n
		case argString, argStrings:
			strs, diags := stringArg(e.Args[i], kind == argStrings)
			if diags.HasErrors() {
				return nil, diags
			}
			args.strings[i] = strs
		}
	}
	return b.build(args), nil
}

var builtinBoundaryKinds = map[string]struct{}{"dirichlet": {}, "neumann": {}}

// concat joins its arguments. Arguments that all live on domains are joined
// over the union of their domains; anything else is stacked numerically.
func (s *scope) concat(e *hclsyntax.FunctionCallExpr) (*expr.Node, hcl.Diagnostics) {
	if len(e.Args) == 0 {
		return nil, errorAt(e, "Wrong number of arguments", "concat needs at least one argument")
	}
	children := make([]*expr.Node, len(e.Args))
	onDomains := true
	for i, arg := range e.Args {
		n, diags := s.node(arg)
		if diags.HasErrors() {
			return nil, diags
		}
		children[i] = n
		onDomains = onDomains && n.HasDomain()
	}
	if onDomains {
		return expr.NewDomainConcatenation(children...), nil
	}
	return expr.NewNumericConcatenation(children...), nil
}

// stringArg evaluates a constant string argument. When list is set, a list
// of strings is accepted too.
func stringArg(e hclsyntax.Expression, list bool) ([]string, hcl.Diagnostics) {
	val, diags := e.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	var one string
	if err := decodeValue(val, cty.String, &one); err == nil {
		return []string{one}, nil
	}
	if list {
		var many []string
		if err := decodeValue(val, cty.List(cty.String), &many); err == nil && len(many) > 0 {
			return many, nil
		}
		return nil, errorAt(e, "Invalid argument", "expected a domain name or a list of domain names")
	}
	return nil, errorAt(e, "Invalid argument", "expected a string")
}
