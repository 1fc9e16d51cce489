package expr

import (
	"fmt"
	"strconv"
	"strings"
)

func (n *Node) String() string {
	var sb strings.Builder
	writeNode(&sb, n)
	return sb.String()
}

func writeNode(sb *strings.Builder, n *Node) {
	switch n.kind {
	case KindScalar:
		sb.WriteString(strconv.FormatFloat(n.Value(), 'g', -1, 64))
	case KindArray:
		r, c := n.Matrix().Dims()
		fmt.Fprintf(sb, "array(%dx%d)", r, c)
	case KindTime:
		sb.WriteString("t")
	case KindInputParameter, KindVariable, KindConcatenationVariable, KindVariableDot, KindSpatialVariable, KindExternalVariable:
		sb.WriteString(n.name)
	case KindStateVector, KindStateVectorDot:
		if n.kind == KindStateVector {
			sb.WriteString("y[")
		} else {
			sb.WriteString("ydot[")
		}
		for i, s := range n.Slices() {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(sb, "%d:%d", s.Start, s.Stop)
		}
		sb.WriteString("]")
	case KindBinary:
		op := n.Op()
		if op == OpMin || op == OpMax {
			sb.WriteString(op.String())
			writeArgs(sb, n.children)
			return
		}
		sb.WriteString("(")
		writeNode(sb, n.children[0])
		sb.WriteString(" " + op.String() + " ")
		writeNode(sb, n.children[1])
		sb.WriteString(")")
	case KindNegate:
		sb.WriteString("-")
		writeNode(sb, n.children[0])
	case KindIndex:
		start, stop := n.IndexRange()
		writeNode(sb, n.children[0])
		fmt.Fprintf(sb, "[%d:%d]", start, stop)
	case KindFunction:
		sb.WriteString(n.name)
		writeArgs(sb, n.children)
	case KindBoundaryValue, KindBoundaryGradient, KindDeltaFunction:
		sb.WriteString(n.kind.String())
		sb.WriteString("(")
		writeNode(sb, n.children[0])
		sb.WriteString(", " + strconv.Quote(n.Side()) + ")")
	case KindBroadcast:
		fmt.Fprintf(sb, "broadcast_%s(", n.BroadcastType())
		writeNode(sb, n.children[0])
		sb.WriteString(" -> " + n.domains.String() + ")")
	default:
		sb.WriteString(n.kind.String())
		writeArgs(sb, n.children)
	}
}

func writeArgs(sb *strings.Builder, args []*Node) {
	sb.WriteString("(")
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeNode(sb, a)
	}
	sb.WriteString(")")
}
