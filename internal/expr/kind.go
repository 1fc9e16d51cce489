package expr

import "fmt"

// Kind enumerates the node variants of the expression tree.
type Kind uint16

const (
	KindInvalid Kind = iota

	// Concrete leaves.
	KindScalar
	KindArray
	KindTime
	KindInputParameter
	KindExternalVariable
	KindStateVector
	KindStateVectorDot

	// Symbolic leaves.
	KindVariable
	KindConcatenationVariable
	KindVariableDot
	KindSpatialVariable

	// Arithmetic.
	KindBinary
	KindNegate
	KindAbs
	KindIndex
	KindFunction
	KindNumericConcatenation
	KindDomainConcatenation

	// Spatial operators.
	KindGradient
	KindDivergence
	KindLaplacian
	KindGradientSquared
	KindMass
	KindBoundaryMass
	KindIntegral
	KindIndefiniteIntegral
	KindBackwardIndefiniteIntegral
	KindDefiniteIntegralVector
	KindBoundaryIntegral
	KindBoundaryValue
	KindBoundaryGradient
	KindBroadcast
	KindDeltaFunction
	KindUpwind
	KindDownwind
	KindNotConstant

	// Averages, always rewritten as integral ratios before lowering.
	KindXAverage
	KindRAverage
	KindSizeAverage

	kindCount
)

type kindInfo struct {
	name    string
	lowered bool
}

var kindTable = [kindCount]kindInfo{
	KindInvalid:                    {"invalid", false},
	KindScalar:                     {"scalar", true},
	KindArray:                      {"array", true},
	KindTime:                       {"time", true},
	KindInputParameter:             {"input_parameter", true},
	KindExternalVariable:           {"external_variable", true},
	KindStateVector:                {"state_vector", true},
	KindStateVectorDot:             {"state_vector_dot", true},
	KindVariable:                   {"variable", false},
	KindConcatenationVariable:      {"concatenation_variable", false},
	KindVariableDot:                {"variable_dot", false},
	KindSpatialVariable:            {"spatial_variable", false},
	KindBinary:                     {"binary", true},
	KindNegate:                     {"negate", true},
	KindAbs:                        {"abs", true},
	KindIndex:                      {"index", true},
	KindFunction:                   {"function", true},
	KindNumericConcatenation:       {"numeric_concatenation", true},
	KindDomainConcatenation:        {"domain_concatenation", false},
	KindGradient:                   {"grad", false},
	KindDivergence:                 {"div", false},
	KindLaplacian:                  {"laplacian", false},
	KindGradientSquared:            {"grad_squared", false},
	KindMass:                       {"mass", false},
	KindBoundaryMass:               {"boundary_mass", false},
	KindIntegral:                   {"integral", false},
	KindIndefiniteIntegral:         {"indefinite_integral", false},
	KindBackwardIndefiniteIntegral: {"backward_indefinite_integral", false},
	KindDefiniteIntegralVector:     {"definite_integral_vector", false},
	KindBoundaryIntegral:           {"boundary_integral", false},
	KindBoundaryValue:              {"boundary_value", false},
	KindBoundaryGradient:           {"boundary_gradient", false},
	KindBroadcast:                  {"broadcast", false},
	KindDeltaFunction:              {"delta_function", false},
	KindUpwind:                     {"upwind", false},
	KindDownwind:                   {"downwind", false},
	KindNotConstant:                {"not_constant", false},
	KindXAverage:                   {"x_average", false},
	KindRAverage:                   {"r_average", false},
	KindSizeAverage:                {"size_average", false},
}

func (k Kind) String() string {
	if k < kindCount {
		return kindTable[k].name
	}
	return fmt.Sprintf("kind(%d)", uint16(k))
}

// Lowered reports whether nodes of this kind may appear in a lowered tree.
func (k Kind) Lowered() bool {
	return k < kindCount && kindTable[k].lowered
}

// Kinds returns every defined kind except KindInvalid.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := KindInvalid + 1; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}
