package expr

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// NewScalar returns a domain-less constant.
func NewScalar(v float64) *Node {
	return newNode(KindScalar, "", Domains{}, nil, ScalarData{Value: v})
}

// NewVector returns a constant column vector.
func NewVector(values ...float64) *Node {
	return NewArray(mat.NewDense(len(values), 1, slices.Clone(values)))
}

// NewArray returns a constant matrix. The matrix is copied.
func NewArray(m *mat.Dense) *Node {
	return NewArrayWithDomains(m, Domains{})
}

// NewArrayWithDomains returns a constant matrix living on d.
func NewArrayWithDomains(m *mat.Dense, d Domains) *Node {
	return newNode(KindArray, "", d, nil, ArrayData{M: mat.DenseCopyOf(m)})
}

// NewZeros returns an all-zero rows x cols array.
func NewZeros(rows, cols int) *Node {
	return newNode(KindArray, "", Domains{}, nil, ArrayData{M: mat.NewDense(rows, cols, nil)})
}

// NewOnes returns an all-one rows x cols array.
func NewOnes(rows, cols int) *Node {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = 1
	}
	return newNode(KindArray, "", Domains{}, nil, ArrayData{M: mat.NewDense(rows, cols, data)})
}

// NewTime returns the independent time variable.
func NewTime() *Node {
	return newNode(KindTime, "t", Domains{}, nil, nil)
}

// NewInputParameter returns a scalar parameter supplied at evaluation time.
func NewInputParameter(name string) *Node {
	return newNode(KindInputParameter, name, Domains{}, nil, SizeData{})
}

// NewInputParameterOn returns a parameter supplied at evaluation time that
// varies over d. Its size is stamped during discretization.
func NewInputParameterOn(name string, d Domains) *Node {
	return newNode(KindInputParameter, name, d, nil, SizeData{})
}

// NewVariable returns an unbounded unknown.
func NewVariable(name string, d Domains) *Node {
	return NewBoundedVariable(name, d, math.Inf(-1), math.Inf(1))
}

// NewBoundedVariable returns an unknown whose values must stay in
// [lower, upper].
func NewBoundedVariable(name string, d Domains, lower, upper float64) *Node {
	return newNode(KindVariable, name, d, nil, VariableData{Lower: lower, Upper: upper})
}

// NewConcatenationVariable stitches variables over adjoining domains into one
// unknown. Its bounds are the loosest of its children's.
func NewConcatenationVariable(name string, children ...*Node) *Node {
	lower, upper := math.Inf(1), math.Inf(-1)
	for _, c := range children {
		lo, hi := c.Bounds()
		lower = math.Min(lower, lo)
		upper = math.Max(upper, hi)
	}
	if len(children) == 0 {
		lower, upper = math.Inf(-1), math.Inf(1)
	}
	return newNode(KindConcatenationVariable, name, concatDomains(children), children,
		VariableData{Lower: lower, Upper: upper})
}

// NewVariableDot returns the time derivative of v.
func NewVariableDot(v *Node) *Node {
	return newNode(KindVariableDot, v.name+"'", v.domains, []*Node{v}, nil)
}

// NewSpatialVariable returns the independent spatial coordinate of d.
func NewSpatialVariable(name string, d Domains, coordSys string) *Node {
	return newNode(KindSpatialVariable, name, d, nil, LabelData{Label: coordSys})
}

// NewExternalVariable returns a placeholder for values provided at evaluation
// time under name. A size of zero means not yet known.
func NewExternalVariable(name string, d Domains, size int) *Node {
	return newNode(KindExternalVariable, name, d, nil, SizeData{Size: size})
}

// NewStateVector references slices of the flat state vector.
func NewStateVector(d Domains, s ...Slice) *Node {
	return newNode(KindStateVector, "", d, nil, SliceData{Slices: slices.Clone(s)})
}

// NewStateVectorDot references slices of the flat state derivative vector.
func NewStateVectorDot(d Domains, s ...Slice) *Node {
	return newNode(KindStateVectorDot, "", d, nil, SliceData{Slices: slices.Clone(s)})
}

// NewBinary combines two operands with op.
func NewBinary(op BinaryOp, a, b *Node) *Node {
	return newNode(KindBinary, "", mergeDomains(a, b), []*Node{a, b}, BinaryData{Op: op})
}

func Add(a, b *Node) *Node     { return NewBinary(OpAdd, a, b) }
func Sub(a, b *Node) *Node     { return NewBinary(OpSub, a, b) }
func Mul(a, b *Node) *Node     { return NewBinary(OpMul, a, b) }
func Div(a, b *Node) *Node     { return NewBinary(OpDiv, a, b) }
func Pow(a, b *Node) *Node     { return NewBinary(OpPow, a, b) }
func MatMul(a, b *Node) *Node  { return NewBinary(OpMatMul, a, b) }
func Minimum(a, b *Node) *Node { return NewBinary(OpMin, a, b) }
func Maximum(a, b *Node) *Node { return NewBinary(OpMax, a, b) }

// Neg returns -a.
func Neg(a *Node) *Node {
	return newNode(KindNegate, "", a.domains, []*Node{a}, nil)
}

// Abs returns |a|.
func Abs(a *Node) *Node {
	return newNode(KindAbs, "", a.domains, []*Node{a}, nil)
}

// NewIndex selects rows [start, stop) of child. The result has no domain
// unless one is set with WithDomains.
func NewIndex(child *Node, start, stop int) *Node {
	return newNode(KindIndex, "", Domains{}, []*Node{child}, IndexData{Start: start, Stop: stop})
}

// Apply calls fn elementwise on args.
func Apply(fn *Func, args ...*Node) *Node {
	return newNode(KindFunction, fn.Name, mergeDomains(args...), args, FunctionData{Fn: fn})
}

// NewNumericConcatenation stacks its children vertically.
func NewNumericConcatenation(children ...*Node) *Node {
	return newNode(KindNumericConcatenation, "", concatDomains(children), children, nil)
}

// NewDomainConcatenation joins expressions living on adjoining domains into
// one expression over their union.
func NewDomainConcatenation(children ...*Node) *Node {
	return newNode(KindDomainConcatenation, "", concatDomains(children), children, nil)
}

func Grad(a *Node) *Node        { return newNode(KindGradient, "", a.domains, []*Node{a}, nil) }
func Divergence(a *Node) *Node  { return newNode(KindDivergence, "", a.domains, []*Node{a}, nil) }
func Laplacian(a *Node) *Node   { return newNode(KindLaplacian, "", a.domains, []*Node{a}, nil) }
func GradSquared(a *Node) *Node { return newNode(KindGradientSquared, "", a.domains, []*Node{a}, nil) }
func Upwind(a *Node) *Node      { return newNode(KindUpwind, "", a.domains, []*Node{a}, nil) }
func Downwind(a *Node) *Node    { return newNode(KindDownwind, "", a.domains, []*Node{a}, nil) }

// MassOf wraps a for extraction of its mass matrix.
func MassOf(a *Node) *Node { return newNode(KindMass, "", a.domains, []*Node{a}, nil) }

// BoundaryMassOf wraps a for extraction of its boundary mass matrix.
func BoundaryMassOf(a *Node) *Node {
	return newNode(KindBoundaryMass, "", a.domains, []*Node{a}, nil)
}

// NotConstant marks a so that constant folding leaves it alone. It has no
// numeric effect.
func NotConstant(a *Node) *Node {
	return newNode(KindNotConstant, "", a.domains, []*Node{a}, nil)
}

// NewIntegral integrates child over the primary domain spanned by vars.
func NewIntegral(child *Node, vars ...*Node) *Node {
	return newNode(KindIntegral, "", child.domains.Shifted(), []*Node{child}, IntegralData{Vars: slices.Clone(vars)})
}

// NewIndefiniteIntegral integrates child from the left edge of its domain.
func NewIndefiniteIntegral(child, v *Node) *Node {
	return newNode(KindIndefiniteIntegral, "", child.domains, []*Node{child}, IntegralData{Vars: []*Node{v}})
}

// NewBackwardIndefiniteIntegral integrates child from the right edge of its
// domain.
func NewBackwardIndefiniteIntegral(child, v *Node) *Node {
	return newNode(KindBackwardIndefiniteIntegral, "", child.domains, []*Node{child}, IntegralData{Vars: []*Node{v}})
}

// Vector orientations of a definite integral vector.
const (
	RowVector    = "row"
	ColumnVector = "column"
)

// NewDefiniteIntegralVector is the vector of quadrature weights over the
// domain of the spatial variable v, as a row or column.
func NewDefiniteIntegralVector(v *Node, orientation string) *Node {
	return newNode(KindDefiniteIntegralVector, "", Domains{}, []*Node{v}, LabelData{Label: orientation})
}

// NewBoundaryIntegral integrates child over a region of its boundary.
func NewBoundaryIntegral(child *Node, region string) *Node {
	return newNode(KindBoundaryIntegral, "", child.domains.Shifted(), []*Node{child}, LabelData{Label: region})
}

// BoundaryValue returns the value of child on side.
func BoundaryValue(child *Node, side string) *Node {
	return newNode(KindBoundaryValue, "", child.domains.Shifted(), []*Node{child}, SideData{Side: side})
}

// BoundaryGradient returns the gradient of child on side.
func BoundaryGradient(child *Node, side string) *Node {
	return newNode(KindBoundaryGradient, "", child.domains.Shifted(), []*Node{child}, SideData{Side: side})
}

// PrimaryBroadcast repeats child over primary. The child's domains become the
// auxiliary domains of the result.
func PrimaryBroadcast(child *Node, primary ...string) *Node {
	d := Domains{Primary: primary, Secondary: child.domains.Primary, Tertiary: child.domains.Secondary}
	return newNode(KindBroadcast, "", d, []*Node{child}, BroadcastData{Type: BroadcastPrimary})
}

// SecondaryBroadcast repeats child over secondary, keeping its primary
// domain.
func SecondaryBroadcast(child *Node, secondary ...string) *Node {
	d := Domains{Primary: child.domains.Primary, Secondary: secondary, Tertiary: child.domains.Secondary}
	return newNode(KindBroadcast, "", d, []*Node{child}, BroadcastData{Type: BroadcastSecondary})
}

// FullBroadcast repeats a domain-less child over every point of d.
func FullBroadcast(child *Node, d Domains) *Node {
	return newNode(KindBroadcast, "", d, []*Node{child}, BroadcastData{Type: BroadcastFull})
}

// NewDeltaFunction concentrates child at side of d.
func NewDeltaFunction(child *Node, side string, d Domains) *Node {
	return newNode(KindDeltaFunction, "", d, []*Node{child}, SideData{Side: side})
}

// XAverage averages child over its primary (through-cell) domain.
func XAverage(child *Node) *Node {
	return newNode(KindXAverage, "", child.domains.Shifted(), []*Node{child}, nil)
}

// RAverage averages child over its primary (particle) domain.
func RAverage(child *Node) *Node {
	return newNode(KindRAverage, "", child.domains.Shifted(), []*Node{child}, nil)
}

// SizeAverage averages child over its primary domain weighted by the
// distribution f.
func SizeAverage(child, f *Node) *Node {
	return newNode(KindSizeAverage, "", child.domains.Shifted(), []*Node{child, f}, nil)
}

// concatDomains joins the primary domains of children in order. The
// auxiliary domains come from the first child.
func concatDomains(children []*Node) Domains {
	var d Domains
	for i, c := range children {
		for _, p := range c.domains.Primary {
			if !slices.Contains(d.Primary, p) {
				d.Primary = append(d.Primary, p)
			}
		}
		if i == 0 {
			d.Secondary = c.domains.Secondary
			d.Tertiary = c.domains.Tertiary
		}
	}
	return d
}
