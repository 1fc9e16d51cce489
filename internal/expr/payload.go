package expr

import (
	"math"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/mat"
)

// ScalarData holds the value of a Scalar node.
type ScalarData struct{ Value float64 }

func (p ScalarData) WriteHash(h *xxhash.Digest) { HashFloat(h, p.Value) }

// ArrayData holds the entries of an Array node. The matrix is owned by the
// node and must not be modified after construction.
type ArrayData struct{ M *mat.Dense }

func (p ArrayData) WriteHash(h *xxhash.Digest) {
	r, c := p.M.Dims()
	HashUint(h, uint64(r))
	HashUint(h, uint64(c))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			HashFloat(h, p.M.At(i, j))
		}
	}
}

// VariableData holds the declared bounds of a Variable or
// ConcatenationVariable.
type VariableData struct{ Lower, Upper float64 }

func (p VariableData) WriteHash(h *xxhash.Digest) {
	HashFloat(h, p.Lower)
	HashFloat(h, p.Upper)
}

// Slice is a half-open index range [Start, Stop) into the flat state vector.
type Slice struct{ Start, Stop int }

// Width returns the number of entries covered by the slice.
func (s Slice) Width() int { return s.Stop - s.Start }

// SliceData holds the slices addressed by a StateVector or StateVectorDot.
type SliceData struct{ Slices []Slice }

func (p SliceData) WriteHash(h *xxhash.Digest) {
	HashUint(h, uint64(len(p.Slices)))
	for _, s := range p.Slices {
		HashUint(h, uint64(s.Start))
		HashUint(h, uint64(s.Stop))
	}
}

// BinaryOp identifies the operator of a Binary node.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
	OpDiv
	OpPow
	OpMatMul
	OpMin
	OpMax
)

var opSymbols = map[BinaryOp]string{
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpPow:    "**",
	OpMatMul: "@",
	OpMin:    "min",
	OpMax:    "max",
}

func (op BinaryOp) String() string {
	if s, ok := opSymbols[op]; ok {
		return s
	}
	return "?"
}

// Elementwise reports whether the operator acts entry by entry.
func (op BinaryOp) Elementwise() bool { return op != OpMatMul }

func (op BinaryOp) apply(a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		return a / b
	case OpPow:
		return math.Pow(a, b)
	case OpMin:
		return math.Min(a, b)
	case OpMax:
		return math.Max(a, b)
	}
	return math.NaN()
}

// BinaryData holds the operator of a Binary node.
type BinaryData struct{ Op BinaryOp }

func (p BinaryData) WriteHash(h *xxhash.Digest) { HashUint(h, uint64(p.Op)) }

// IndexData holds the row range selected by an Index node.
type IndexData struct{ Start, Stop int }

func (p IndexData) WriteHash(h *xxhash.Digest) {
	HashUint(h, uint64(p.Start))
	HashUint(h, uint64(p.Stop))
}

// FunctionData holds the callable applied by a Function node.
type FunctionData struct{ Fn *Func }

func (p FunctionData) WriteHash(h *xxhash.Digest) { HashString(h, p.Fn.Name) }

// SizeData holds the expected or declared number of rows of an
// InputParameter or ExternalVariable. Zero means unknown.
type SizeData struct{ Size int }

func (p SizeData) WriteHash(h *xxhash.Digest) { HashUint(h, uint64(p.Size)) }

// SideData holds the boundary side addressed by a boundary operator or a
// delta function.
type SideData struct{ Side string }

func (p SideData) WriteHash(h *xxhash.Digest) { HashString(h, p.Side) }

// IntegralData holds the integration variables of an integral.
type IntegralData struct{ Vars []*Node }

func (p IntegralData) WriteHash(h *xxhash.Digest) {
	HashUint(h, uint64(len(p.Vars)))
	for _, v := range p.Vars {
		HashUint(h, v.id)
	}
}

// BroadcastType selects how a Broadcast repeats its child.
type BroadcastType uint8

const (
	BroadcastPrimary BroadcastType = iota + 1
	BroadcastSecondary
	BroadcastFull
)

func (t BroadcastType) String() string {
	switch t {
	case BroadcastPrimary:
		return "primary"
	case BroadcastSecondary:
		return "secondary"
	case BroadcastFull:
		return "full"
	}
	return "unknown"
}

// BroadcastData holds the broadcast type.
type BroadcastData struct{ Type BroadcastType }

func (p BroadcastData) WriteHash(h *xxhash.Digest) { HashUint(h, uint64(p.Type)) }

// LabelData holds a free-form label: the coordinate system of a spatial
// variable, the vector orientation of a definite integral vector or the
// region of a boundary integral.
type LabelData struct{ Label string }

func (p LabelData) WriteHash(h *xxhash.Digest) { HashString(h, p.Label) }
