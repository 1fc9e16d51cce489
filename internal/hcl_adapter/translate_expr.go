// This file translates native HCL expression syntax into expression trees.

package hcl_adapter

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/expr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// timeName is the reserved name of the time variable.
const timeName = "t"

// scope resolves the names an expression may refer to.
type scope struct {
	symbols map[string]*expr.Node
}

func newScope() *scope {
	return &scope{symbols: make(map[string]*expr.Node)}
}

func (s *scope) define(name string, n *expr.Node) error {
	if name == timeName {
		return fmt.Errorf("'%s' is reserved for time", name)
	}
	if !hclsyntax.ValidIdentifier(name) {
		return fmt.Errorf("'%s' is not a valid identifier", name)
	}
	if _, ok := s.symbols[name]; ok {
		return fmt.Errorf("'%s' declared twice", name)
	}
	s.symbols[name] = n
	return nil
}

func (s *scope) lookup(name string) (*expr.Node, error) {
	n, ok := s.symbols[name]
	if !ok {
		return nil, fmt.Errorf("unknown name '%s'", name)
	}
	return n, nil
}

// translate converts e into an expression tree.
func (s *scope) translate(e hcl.Expression) (*expr.Node, error) {
	syn, ok := e.(hclsyntax.Expression)
	if !ok {
		return nil, fmt.Errorf("%s: equations must use native HCL syntax", e.Range())
	}
	n, diags := s.node(syn)
	if diags.HasErrors() {
		return nil, diags
	}
	return n, nil
}

// condition converts a dirichlet(value) or neumann(value) call.
func (s *scope) condition(e hcl.Expression) (boundary.Condition, error) {
	call, ok := e.(*hclsyntax.FunctionCallExpr)
	if !ok {
		return boundary.Condition{}, errorAt(e, "Invalid boundary condition", "expected dirichlet(value) or neumann(value)")
	}
	kind, ok := boundary.ParseKind(call.Name)
	if !ok {
		return boundary.Condition{}, errorAt(e, "Invalid boundary condition", fmt.Sprintf("expected dirichlet(value) or neumann(value), got %s(...)", call.Name))
	}
	if len(call.Args) != 1 {
		return boundary.Condition{}, errorAt(e, "Invalid boundary condition", fmt.Sprintf("%s takes exactly one argument", call.Name))
	}
	value, diags := s.node(call.Args[0])
	if diags.HasErrors() {
		return boundary.Condition{}, diags
	}
	return boundary.Condition{Value: value, Kind: kind}, nil
}

func (s *scope) node(e hclsyntax.Expression) (*expr.Node, hcl.Diagnostics) {
	switch e := e.(type) {
	case *hclsyntax.LiteralValueExpr:
		return number(e, e.Val)
	case *hclsyntax.TupleConsExpr:
		val, diags := e.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		var values []float64
		if err := decodeValue(val, cty.List(cty.Number), &values); err != nil || len(values) == 0 {
			return nil, errorAt(e, "Invalid vector", "a vector literal must be a non-empty list of numbers")
		}
		return expr.NewVector(values...), nil
	case *hclsyntax.ScopeTraversalExpr:
		if len(e.Traversal) != 1 {
			return nil, errorAt(e, "Unsupported reference", fmt.Sprintf("%s: attribute and index access are not supported", traversalKey(e.Traversal)))
		}
		name := e.Traversal.RootName()
		if name == timeName {
			return expr.NewTime(), nil
		}
		n, ok := s.symbols[name]
		if !ok {
			return nil, errorAt(e, "Unknown name", fmt.Sprintf("'%s' is not declared in this model", name))
		}
		return n, nil
	case *hclsyntax.ParenthesesExpr:
		return s.node(e.Expression)
	case *hclsyntax.UnaryOpExpr:
		if e.Op != hclsyntax.OpNegate {
			return nil, errorAt(e, "Unsupported operator", "only negation is supported")
		}
		val, diags := s.node(e.Val)
		if diags.HasErrors() {
			return nil, diags
		}
		return expr.Neg(val), nil
	case *hclsyntax.BinaryOpExpr:
		op, ok := binaryOps[e.Op]
		if !ok {
			return nil, errorAt(e, "Unsupported operator", "only +, -, * and / are supported")
		}
		lhs, diags := s.node(e.LHS)
		if diags.HasErrors() {
			return nil, diags
		}
		rhs, diags := s.node(e.RHS)
		if diags.HasErrors() {
			return nil, diags
		}
		return expr.NewBinary(op, lhs, rhs), nil
	case *hclsyntax.FunctionCallExpr:
		return s.call(e)
	}
	return nil, errorAt(e, "Unsupported expression", fmt.Sprintf("%T cannot appear in an equation", e))
}

var binaryOps = map[*hclsyntax.Operation]expr.BinaryOp{
	hclsyntax.OpAdd:      expr.OpAdd,
	hclsyntax.OpSubtract: expr.OpSub,
	hclsyntax.OpMultiply: expr.OpMul,
	hclsyntax.OpDivide:   expr.OpDiv,
}

func number(e hcl.Expression, val cty.Value) (*expr.Node, hcl.Diagnostics) {
	var f float64
	if err := decodeValue(val, cty.Number, &f); err != nil {
		return nil, errorAt(e, "Invalid literal", fmt.Sprintf("expected a number, got %s", val.Type().FriendlyName()))
	}
	return expr.NewScalar(f), nil
}

func decodeValue(val cty.Value, ty cty.Type, target any) error {
	val, err := convert.Convert(val, ty)
	if err != nil {
		return err
	}
	return gocty.FromCtyValue(val, target)
}

// traversalKey renders t the way it is written in source.
func traversalKey(t hcl.Traversal) string {
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

func errorAt(e hcl.Expression, summary, detail string) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  e.Range().Ptr(),
	}}
}
