// Package discretize lowers a continuous-domain model onto a mesh.
//
// An Engine owns a mesh and a table of spatial methods, one per domain. Its
// ProcessModel pass turns a model.Model into a model.Discretized in a fixed
// order of steps:
//
//  1. Collect the unknowns, the keys of the rhs and algebraic equations.
//  2. Lay every unknown out in one flat state vector (layout.go).
//  3. Register external variables.
//  4. Lower the user boundary conditions and synthesize the internal ones at
//     the seams of concatenated variables (boundary.go).
//  5. Lower the initial conditions and concatenate them in state order.
//  6. Lower the outputs.
//  7. Lower the rhs and algebraic equations and concatenate them.
//  8. Assemble the block-diagonal mass matrix (mass.go).
//  9. Lower the events.
//  10. Check bounds and shapes (check.go).
//  11. Mark the source model as discretized.
//
// Lowering (lower.go) is a memoized tree rewrite keyed by the structural ID
// of each node. Rules are looked up by node kind in a dispatch table that
// callers can extend with RegisterLowering. The cache lives on the engine,
// is reset at the start of every ProcessModel call and is cleared whenever
// the boundary conditions are replaced, since gradients depend on them.
//
// An Engine is not safe for concurrent use.
package discretize
