// Package model holds the containers that flow into and out of the
// discretization engine.
//
// # Core Concepts
//
//   - Model: the undiscretized input. Unknowns are the keys of the RHS
//     (differential) and Algebraic equation maps; every unknown also needs an
//     entry in InitialConditions. BoundaryConditions, Outputs, Events and
//     ExternalVariables complete the description.
//
//   - Equations: an insertion-ordered map from a variable node to the
//     expression defining it. Keys are compared by structural identity, so a
//     variable rebuilt from the same parts finds the same entry.
//
//   - Discretized: the engine's output. It carries the state-vector layout,
//     the lowered equations and their concatenations, the mass matrix and,
//     on request, the Jacobian. Evaluation helpers turn it into the callables
//     a time integrator consumes.
//
// A Model can be discretized once. Callers that need several discretizations
// of the same system, for example on successively refined meshes, discretize
// independent copies obtained with Copy.
package model
