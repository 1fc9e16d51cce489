package hcl_adapter_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/config"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/hcl_adapter"
	"github.com/vk/discretego/internal/mesh"
	"github.com/vk/discretego/internal/model"
	"github.com/vk/discretego/internal/testutil"
)

const negative = "negative electrode"

func TestLoader_Load(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"mesh/domains.hcl":   testutil.ThroughCell,
		"models/default.hcl": testutil.Diffusion,
		"README.md":          "not a model file",
	})

	cfg, err := hcl_adapter.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, cfg.Domains, 3)
	assert.Equal(t, &config.Domain{Name: "separator", Min: 1, Max: 1.6, Points: 3, CoordSys: mesh.Cartesian}, cfg.Domains[1])
	assert.Equal(t, []*config.Method{{Domain: "macroscale", Method: "finite volume"}}, cfg.Methods)

	require.Len(t, cfg.Models, 1)
	md := cfg.Models[0]
	assert.Equal(t, "diffusion", md.Name)

	cn := expr.NewVariable("c_n", expr.On(negative))
	cs := expr.NewVariable("c_s", expr.On("separator"))
	cp := expr.NewVariable("c_p", expr.On("positive electrode"))
	c := expr.NewConcatenationVariable("c", cn, cs, cp)
	q := expr.NewVariable("Q", expr.Domains{})

	require.Equal(t, 2, md.RHS.Len())
	assertEquation(t, md.RHS, c, expr.Divergence(expr.Grad(c)))
	assertEquation(t, md.RHS, q, expr.NewInputParameterOn("I", expr.On()))
	assertEquation(t, md.InitialConditions, c, expr.NewScalar(1))
	assertEquation(t, md.InitialConditions, q, expr.NewScalar(0))
	assert.Equal(t, 0, md.Algebraic.Len())

	sides, ok := md.BoundaryConditions.Get(c)
	require.True(t, ok)
	require.Len(t, sides, 2)
	assert.Equal(t, boundary.Neumann, sides[boundary.Left].Kind)
	assert.Equal(t, expr.NewScalar(0).ID(), sides[boundary.Left].Value.ID())
	assert.Equal(t, boundary.Dirichlet, sides[boundary.Right].Kind)
	assert.Equal(t, expr.NewScalar(1).ID(), sides[boundary.Right].Value.ID())

	out, ok := md.Outputs.Get("c average")
	require.True(t, ok)
	assert.Equal(t, expr.XAverage(c).ID(), out.Expr.ID())
	assert.True(t, out.Domains.Empty())

	require.Len(t, md.Events, 1)
	assert.Equal(t, "Q limit", md.Events[0].Name)
	assert.Equal(t, model.Termination, md.Events[0].Type)
	assert.Equal(t, expr.Sub(expr.NewScalar(10), q).ID(), md.Events[0].Expr.ID())
}

func TestLoader_Declarations(t *testing.T) {
	cfg, err := testutil.LoadHCL(t, `
domain "current collector" {}

domain "particle" {
  min       = 0
  max       = 1e-5
  points    = 4
  coord_sys = "spherical polar"
}

domain "negative electrode" {
  min    = 0
  max    = 1
  points = 2
  tabs   = { "negative tab" = "left" }
}

spatial_method "current collector" {
  method = "zero dimensional"
}

model "declarations" {
  variable "c" {
    domain    = ["particle"]
    secondary = ["negative electrode"]
    bounds    = [0, 1]
  }
  variable "T" {
    domain   = ["negative electrode"]
    external = true
  }
  variable "phi" {}
  spatial_variable "r" {
    domain    = ["particle"]
    coord_sys = "spherical polar"
  }
  input "j" {
    domain = ["negative electrode"]
  }

  algebraic "phi" {
    equation = phi - x_average(j)
  }

  event "switch" {
    value = phi
    type  = "discontinuity"
  }

  output "flux" {
    value  = 2
    domain = ["negative electrode"]
  }
}
`)
	require.NoError(t, err)

	assert.Equal(t, []*config.Domain{
		{Name: "current collector", CoordSys: mesh.Cartesian},
		{Name: "particle", Max: 1e-5, Points: 4, CoordSys: mesh.SphericalPolar},
		{Name: negative, Max: 1, Points: 2, CoordSys: mesh.Cartesian, Tabs: map[string]string{"negative tab": "left"}},
	}, cfg.Domains)
	assert.Equal(t, []*config.Method{{Domain: "current collector", Method: "zero dimensional"}}, cfg.Methods)

	md := cfg.Models[0]
	phi := expr.NewVariable("phi", expr.Domains{})
	j := expr.NewInputParameterOn("j", expr.On(negative))
	assertEquation(t, md.Algebraic, phi, expr.Sub(phi, expr.XAverage(j)))
	_, hasIC := md.InitialConditions.Get(phi)
	assert.False(t, hasIC, "initial is optional")

	require.Len(t, md.ExternalVariables, 1)
	temp := md.ExternalVariables[0]
	assert.Equal(t, expr.NewVariable("T", expr.On(negative)).ID(), temp.ID())

	require.Len(t, md.Events, 1)
	assert.Equal(t, model.Discontinuity, md.Events[0].Type)

	out, ok := md.Outputs.Get("flux")
	require.True(t, ok)
	assert.Equal(t, expr.On(negative), out.Domains)
}

func TestLoader_BoundedVariable(t *testing.T) {
	cfg, err := testutil.LoadHCL(t, `
model "bounded" {
  variable "c" {
    bounds = [0, 1]
  }
  variable "u" {}
  rhs "c" {
    equation = -c
  }
  rhs "u" {
    equation = c
  }
}
`)
	require.NoError(t, err)

	keys := cfg.Models[0].RHS.Keys()
	require.Len(t, keys, 2)
	lower, upper := keys[0].Bounds()
	assert.Equal(t, 0.0, lower)
	assert.Equal(t, 1.0, upper)
	lower, upper = keys[1].Bounds()
	assert.True(t, math.IsInf(lower, -1))
	assert.True(t, math.IsInf(upper, 1))
	assertEquation(t, cfg.Models[0].RHS, keys[0], expr.Neg(keys[0]))
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "syntax error",
			src:     `model "broken" {`,
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "unknown block",
			src:     `mesh "a" {}`,
			wantErr: "failed to decode HCL file",
		},
		{
			name:    "meshed domain without max",
			src:     `domain "a" { points = 3 }`,
			wantErr: "domain 'a': a meshed domain needs both min and max",
		},
		{
			name:    "negative points",
			src:     `domain "a" { points = -3 }`,
			wantErr: "points must not be negative",
		},
		{
			name:    "tabs of the wrong type",
			src:     `domain "a" { tabs = 3 }`,
			wantErr: "attribute 'tabs' must be map of string",
		},
		{
			name: "bad bounds",
			src: `model "m" {
  variable "c" { bounds = [1, 0] }
}`,
			wantErr: "variable 'c': bounds must be [lower, upper]",
		},
		{
			name: "reserved name",
			src: `model "m" {
  variable "t" {}
}`,
			wantErr: "'t' is reserved for time",
		},
		{
			name: "declared twice",
			src: `model "m" {
  variable "c" {}
  input "c" {}
}`,
			wantErr: "'c' declared twice",
		},
		{
			name: "name that cannot be referenced",
			src: `model "m" {
  variable "c n" {}
}`,
			wantErr: "'c n' is not a valid identifier",
		},
		{
			name: "unknown concatenation child",
			src: `model "m" {
  concatenation "c" { children = ["a"] }
}`,
			wantErr: "concatenation 'c': unknown name 'a'",
		},
		{
			name: "concatenation of a non-variable",
			src: `model "m" {
  spatial_variable "x" { domain = ["a"] }
  concatenation "c" { children = ["x"] }
}`,
			wantErr: "child 'x' is not a variable",
		},
		{
			name: "concatenation of an input",
			src: `model "m" {
  concatenation "c" { children = ["I"] }
  input "I" {}
}`,
			wantErr: "child 'I' is not a variable",
		},
		{
			name: "unknown coordinate system",
			src: `model "m" {
  spatial_variable "x" {
    domain    = ["a"]
    coord_sys = "polar"
  }
}`,
			wantErr: "unknown coordinate system 'polar'",
		},
		{
			name: "equation for an input",
			src: `model "m" {
  input "I" {}
  rhs "I" { equation = 1 }
}`,
			wantErr: "'I' is not a variable",
		},
		{
			name: "two equations",
			src: `model "m" {
  variable "u" {}
  rhs "u" { equation = 1 }
  rhs "u" { equation = 2 }
}`,
			wantErr: "variable 'u' has two equations",
		},
		{
			name: "boundary condition that is not a call",
			src: `model "m" {
  variable "u" {}
  boundary_conditions "u" { left = 1 }
}`,
			wantErr: "expected dirichlet(value) or neumann(value)",
		},
		{
			name: "unknown boundary kind",
			src: `model "m" {
  variable "u" {}
  boundary_conditions "u" { left = robin(1) }
}`,
			wantErr: "got robin(...)",
		},
		{
			name: "boundary block without sides",
			src: `model "m" {
  variable "u" {}
  boundary_conditions "u" {}
}`,
			wantErr: "no side is set",
		},
		{
			name: "unknown event type",
			src: `model "m" {
  event "e" {
    value = 1
    type  = "sometimes"
  }
}`,
			wantErr: `unknown event type "sometimes"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := testutil.LoadHCL(t, tc.src)
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoader_DuplicateModelAcrossFiles(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"a.hcl": `model "m" {}`,
		"b.hcl": `model "m" {}`,
	})

	_, err := hcl_adapter.NewLoader().Load(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorContains(t, err, "model 'm' already declared in")
}

func TestLoader_Paths(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"one.hcl": `domain "a" {}`,
		"two.hcl": `domain "b" {}`,
	})
	loader := hcl_adapter.NewLoader()

	cfg, err := loader.Load(context.Background(), filepath.Join(dir, "one.hcl"), dir)
	require.NoError(t, err)
	assert.Len(t, cfg.Domains, 2, "a file reached twice is loaded once")

	_, err = loader.Load(context.Background(), filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "does not exist")
}

func assertEquation(t *testing.T, eqs *model.Equations, key, want *expr.Node) {
	t.Helper()
	got, ok := eqs.Get(key)
	require.True(t, ok, "no equation for %s", key)
	assert.Equal(t, want.ID(), got.ID(), "got %s, want %s", got, want)
}
