// Package expr defines the immutable expression tree that models are written
// in and that the discretization engine lowers into numeric operators.
//
// Every tree element is a *Node: a tagged union of a Kind, a name, the
// domains it lives on, its children and a kind-specific Payload. A node's
// identity is structural. The 64-bit ID is computed once at construction from
// the kind, name, domains, child IDs and payload, so two independently built
// but structurally equal nodes are interchangeable as cache keys.
//
// Nodes are never mutated. Every transform (WithChildren, WithDomains,
// WithExpectedSize, Simplify, Jacobian) returns new nodes.
//
// Two families of kinds exist:
//
//   - symbolic kinds (Variable, Gradient, Integral, Broadcast, ...) that only
//     make sense before discretization, and
//   - lowered kinds (StateVector, Array, Binary, Function, ...) that can be
//     evaluated against a flat state vector with Evaluate.
//
// Kind.Lowered reports which family a kind belongs to.
package expr
