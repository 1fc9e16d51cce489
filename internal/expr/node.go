package expr

import (
	"fmt"
	"math"
	"slices"

	"github.com/vk/discretego/internal/modelerr"
	"gonum.org/v1/gonum/mat"
)

// Shape is the matrix shape of a node's value. The zero Shape means the shape
// is not known yet, which is the case for symbolic nodes.
type Shape struct{ Rows, Cols int }

// Known reports whether the shape has been determined.
func (s Shape) Known() bool { return s.Rows > 0 && s.Cols > 0 }

// Size returns Rows*Cols.
func (s Shape) Size() int { return s.Rows * s.Cols }

func (s Shape) String() string {
	if !s.Known() {
		return "(?)"
	}
	return fmt.Sprintf("(%d, %d)", s.Rows, s.Cols)
}

// Node is an immutable expression tree element.
type Node struct {
	kind     Kind
	name     string
	domains  Domains
	children []*Node
	payload  Payload

	id       uint64
	shape    Shape
	shapeErr error
}

func newNode(kind Kind, name string, domains Domains, children []*Node, payload Payload) *Node {
	n := &Node{
		kind:     kind,
		name:     name,
		domains:  domains.Clone(),
		children: slices.Clone(children),
		payload:  payload,
	}
	n.id = computeID(kind, name, n.domains, n.children, payload)
	for _, c := range n.children {
		if c.shapeErr != nil {
			n.shapeErr = c.shapeErr
			return n
		}
	}
	n.shape, n.shapeErr = inferShape(n)
	return n
}

func (n *Node) Kind() Kind         { return n.kind }
func (n *Node) Name() string       { return n.name }
func (n *Node) Domains() Domains   { return n.domains }
func (n *Node) Children() []*Node  { return n.children }
func (n *Node) Payload() Payload   { return n.payload }
func (n *Node) ID() uint64         { return n.id }
func (n *Node) Shape() Shape       { return n.shape }
func (n *Node) NumChildren() int   { return len(n.children) }
func (n *Node) Child(i int) *Node  { return n.children[i] }
func (n *Node) HasDomain() bool    { return !n.domains.Empty() }
func (n *Node) Equal(o *Node) bool { return o != nil && n.id == o.id }

// CheckShape returns the first shape inconsistency found in the subtree
// rooted at n, or nil.
func CheckShape(n *Node) error { return n.shapeErr }

// Value returns the value of a Scalar node.
func (n *Node) Value() float64 {
	if p, ok := n.payload.(ScalarData); ok {
		return p.Value
	}
	return math.NaN()
}

// Matrix returns the entries of an Array node. Callers must not modify it.
func (n *Node) Matrix() *mat.Dense {
	if p, ok := n.payload.(ArrayData); ok {
		return p.M
	}
	return nil
}

// Slices returns the slices of a StateVector or StateVectorDot node.
func (n *Node) Slices() []Slice {
	if p, ok := n.payload.(SliceData); ok {
		return p.Slices
	}
	return nil
}

// Op returns the operator of a Binary node.
func (n *Node) Op() BinaryOp {
	if p, ok := n.payload.(BinaryData); ok {
		return p.Op
	}
	return 0
}

// Bounds returns the declared bounds of a variable.
func (n *Node) Bounds() (lower, upper float64) {
	if p, ok := n.payload.(VariableData); ok {
		return p.Lower, p.Upper
	}
	return math.Inf(-1), math.Inf(1)
}

// Side returns the boundary side of a boundary operator or delta function.
func (n *Node) Side() string {
	if p, ok := n.payload.(SideData); ok {
		return p.Side
	}
	return ""
}

// IndexRange returns the row range of an Index node.
func (n *Node) IndexRange() (start, stop int) {
	if p, ok := n.payload.(IndexData); ok {
		return p.Start, p.Stop
	}
	return 0, 0
}

// Func returns the callable of a Function node.
func (n *Node) Func() *Func {
	if p, ok := n.payload.(FunctionData); ok {
		return p.Fn
	}
	return nil
}

// Size returns the declared size of an InputParameter or ExternalVariable,
// zero when unknown.
func (n *Node) Size() int {
	if p, ok := n.payload.(SizeData); ok {
		return p.Size
	}
	return 0
}

// IntegrationVars returns the integration variables of an Integral.
func (n *Node) IntegrationVars() []*Node {
	if p, ok := n.payload.(IntegralData); ok {
		return p.Vars
	}
	return nil
}

// BroadcastType returns the type of a Broadcast node.
func (n *Node) BroadcastType() BroadcastType {
	if p, ok := n.payload.(BroadcastData); ok {
		return p.Type
	}
	return 0
}

// Label returns the label of a SpatialVariable (its coordinate system), a
// DefiniteIntegralVector (its orientation) or a BoundaryIntegral (its region).
func (n *Node) Label() string {
	if p, ok := n.payload.(LabelData); ok {
		return p.Label
	}
	return ""
}

// WithChildren returns a copy of n with the given children.
func (n *Node) WithChildren(children ...*Node) *Node {
	return newNode(n.kind, n.name, n.domains, children, n.payload)
}

// WithDomains returns a copy of n living on d.
func (n *Node) WithDomains(d Domains) *Node {
	return newNode(n.kind, n.name, d, n.children, n.payload)
}

// WithExpectedSize returns a copy of an InputParameter or ExternalVariable
// with its size stamped. Other kinds are returned unchanged.
func (n *Node) WithExpectedSize(size int) *Node {
	if n.kind != KindInputParameter && n.kind != KindExternalVariable {
		return n
	}
	return newNode(n.kind, n.name, n.domains, n.children, SizeData{Size: size})
}

// Any reports whether pred holds for n or any node below it.
func Any(n *Node, pred func(*Node) bool) bool {
	if pred(n) {
		return true
	}
	for _, c := range n.children {
		if Any(c, pred) {
			return true
		}
	}
	return false
}

// HasKind reports whether the subtree rooted at n contains a node of one of
// the given kinds.
func HasKind(n *Node, kinds ...Kind) bool {
	return Any(n, func(m *Node) bool { return slices.Contains(kinds, m.kind) })
}

// IsLowered reports whether every node in the subtree has a lowered kind.
func IsLowered(n *Node) bool {
	return !Any(n, func(m *Node) bool { return !m.kind.Lowered() })
}

func inferShape(n *Node) (Shape, error) {
	switch n.kind {
	case KindScalar, KindTime:
		return Shape{1, 1}, nil
	case KindArray:
		r, c := n.Matrix().Dims()
		return Shape{r, c}, nil
	case KindInputParameter, KindExternalVariable:
		if size := n.Size(); size > 0 {
			return Shape{size, 1}, nil
		}
		if n.kind == KindInputParameter && n.domains.Empty() {
			return Shape{1, 1}, nil
		}
		return Shape{}, nil
	case KindStateVector, KindStateVectorDot:
		if len(n.Slices()) == 0 {
			return Shape{}, modelerr.Shapef("%s addresses no slices", n.kind)
		}
		rows := 0
		for _, s := range n.Slices() {
			if s.Start < 0 || s.Stop <= s.Start {
				return Shape{}, modelerr.Shapef("%s has an empty or negative slice [%d:%d]", n.kind, s.Start, s.Stop)
			}
			rows += s.Width()
		}
		return Shape{rows, 1}, nil
	case KindBinary:
		return binaryShape(n)
	case KindNegate, KindAbs:
		return n.children[0].shape, nil
	case KindFunction:
		shapes := make([]Shape, len(n.children))
		for i, c := range n.children {
			shapes[i] = c.shape
		}
		return broadcastShapes(n, shapes...)
	case KindIndex:
		child := n.children[0].shape
		start, stop := n.IndexRange()
		if start < 0 || stop <= start {
			return Shape{}, modelerr.Shapef("index [%d:%d] is empty or negative", start, stop)
		}
		if !child.Known() {
			return Shape{}, nil
		}
		if stop > child.Rows {
			return Shape{}, modelerr.Shapef("index [%d:%d] out of range for %s of shape %s", start, stop, n.children[0], child)
		}
		return Shape{stop - start, child.Cols}, nil
	case KindNumericConcatenation:
		out := Shape{}
		for _, c := range n.children {
			if !c.shape.Known() {
				return Shape{}, nil
			}
			if out.Cols != 0 && c.shape.Cols != out.Cols {
				return Shape{}, modelerr.Shapef("cannot concatenate %s of shape %s with %d columns", c, c.shape, out.Cols)
			}
			out.Rows += c.shape.Rows
			out.Cols = c.shape.Cols
		}
		return out, nil
	}
	return Shape{}, nil
}

func binaryShape(n *Node) (Shape, error) {
	a, b := n.children[0].shape, n.children[1].shape
	if !a.Known() || !b.Known() {
		return Shape{}, nil
	}
	if n.Op() == OpMatMul {
		if a.Cols != b.Rows {
			return Shape{}, modelerr.Shapef("cannot multiply %s of shape %s by %s of shape %s",
				n.children[0], a, n.children[1], b)
		}
		return Shape{a.Rows, b.Cols}, nil
	}
	return broadcastShapes(n, a, b)
}

// broadcastShapes applies the elementwise rule: equal shapes, a 1x1 operand
// with anything, or an n x 1 column with an n x m matrix.
func broadcastShapes(n *Node, shapes ...Shape) (Shape, error) {
	out := Shape{1, 1}
	for _, s := range shapes {
		if !s.Known() {
			return Shape{}, nil
		}
		switch {
		case s == out, s == (Shape{1, 1}):
		case out == (Shape{1, 1}):
			out = s
		case s.Rows == out.Rows && s.Cols == 1:
		case s.Rows == out.Rows && out.Cols == 1:
			out = s
		default:
			return Shape{}, modelerr.Shapef("cannot combine operands of shapes %s and %s in %s", out, s, n)
		}
	}
	return out, nil
}
