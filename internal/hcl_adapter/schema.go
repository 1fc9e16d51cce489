package hcl_adapter

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot is a struct used to decode all possible top-level blocks from any
// file. Anything else in a file is an error.
type fileRoot struct {
	Domains []*Domain        `hcl:"domain,block"`
	Methods []*SpatialMethod `hcl:"spatial_method,block"`
	Models  []*Model         `hcl:"model,block"`
}

// Domain is the HCL schema of a `domain` block. Omitting points declares a
// single point.
type Domain struct {
	Name     string         `hcl:"name,label"`
	Min      hcl.Expression `hcl:"min,optional"`
	Max      hcl.Expression `hcl:"max,optional"`
	Points   hcl.Expression `hcl:"points,optional"`
	CoordSys hcl.Expression `hcl:"coord_sys,optional"`
	Tabs     hcl.Expression `hcl:"tabs,optional"`
}

// SpatialMethod is the HCL schema of a `spatial_method` block, labelled by
// domain.
type SpatialMethod struct {
	Domain string `hcl:"domain,label"`
	Method string `hcl:"method"`
}

// Model is the HCL schema of a `model` block.
type Model struct {
	Name             string           `hcl:"name,label"`
	Variables        []*Variable      `hcl:"variable,block"`
	Concatenations   []*Concatenation `hcl:"concatenation,block"`
	SpatialVariables []*SpatialVar    `hcl:"spatial_variable,block"`
	Inputs           []*Input         `hcl:"input,block"`
	RHS              []*Equation      `hcl:"rhs,block"`
	Algebraic        []*Equation      `hcl:"algebraic,block"`
	Boundaries       []*Boundary      `hcl:"boundary_conditions,block"`
	Outputs          []*Output        `hcl:"output,block"`
	Events           []*Event         `hcl:"event,block"`
}

// Variable declares an unknown, or an externally supplied value when
// External is set.
type Variable struct {
	Name      string         `hcl:"name,label"`
	Domain    []string       `hcl:"domain,optional"`
	Secondary []string       `hcl:"secondary,optional"`
	Bounds    hcl.Expression `hcl:"bounds,optional"`
	External  bool           `hcl:"external,optional"`
}

// Concatenation declares one unknown stitched from variables on adjoining
// domains.
type Concatenation struct {
	Name     string   `hcl:"name,label"`
	Children []string `hcl:"children"`
}

// SpatialVar declares a coordinate over a domain.
type SpatialVar struct {
	Name     string         `hcl:"name,label"`
	Domain   []string       `hcl:"domain"`
	CoordSys hcl.Expression `hcl:"coord_sys,optional"`
}

// Input declares a parameter supplied at evaluation time.
type Input struct {
	Name   string   `hcl:"name,label"`
	Domain []string `hcl:"domain,optional"`
}

// Equation is an `rhs` or `algebraic` block, labelled by the variable it
// determines.
type Equation struct {
	Variable string         `hcl:"variable,label"`
	Equation hcl.Expression `hcl:"equation"`
	Initial  hcl.Expression `hcl:"initial,optional"`
}

// Boundary holds the conditions on the sides of one variable. Each side is
// a dirichlet(...) or neumann(...) call.
type Boundary struct {
	Variable    string         `hcl:"variable,label"`
	Left        hcl.Expression `hcl:"left,optional"`
	Right       hcl.Expression `hcl:"right,optional"`
	NegativeTab hcl.Expression `hcl:"negative_tab,optional"`
	PositiveTab hcl.Expression `hcl:"positive_tab,optional"`
	NoTab       hcl.Expression `hcl:"no_tab,optional"`
}

// Output is a named expression reported with the solution.
type Output struct {
	Name   string         `hcl:"name,label"`
	Value  hcl.Expression `hcl:"value"`
	Domain []string       `hcl:"domain,optional"`
}

// Event is a named expression whose zero crossing matters.
type Event struct {
	Name  string         `hcl:"name,label"`
	Value hcl.Expression `hcl:"value"`
	Type  *string        `hcl:"type,optional"`
}
