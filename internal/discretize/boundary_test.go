package discretize_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/discretize"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/mesh"
	"github.com/vk/discretego/internal/model"
	"github.com/vk/discretego/internal/modelerr"
	"github.com/vk/discretego/internal/spatial"
)

func TestResolveBoundaryConditions_Seams(t *testing.T) {
	m, c := diffusionModel()
	e := cellEngine(t)
	require.NoError(t, e.SetVariableSlices([]*expr.Node{c}))

	bcs, err := e.ResolveBoundaryConditions(m.BoundaryConditions)
	require.NoError(t, err)
	assert.Same(t, bcs, e.BoundaryConditions())
	require.Equal(t, 4, bcs.Len())

	cn, cs, cp := c.Child(0), c.Child(1), c.Child(2)
	sn, ok := bcs.Get(cn)
	require.True(t, ok)
	ss, ok := bcs.Get(cs)
	require.True(t, ok)
	sp, ok := bcs.Get(cp)
	require.True(t, ok)

	// The separator only borders other domains.
	assert.Equal(t, boundary.Neumann, ss[boundary.Left].Kind)
	assert.Equal(t, boundary.Neumann, ss[boundary.Right].Kind)

	// Each seam is one condition shared by both of its sides.
	assert.Same(t, sn[boundary.Right].Value, ss[boundary.Left].Value)
	assert.Same(t, ss[boundary.Right].Value, sp[boundary.Left].Value)
	assert.NotSame(t, ss[boundary.Left].Value, ss[boundary.Right].Value)

	// The outer children keep the conditions given for the whole variable.
	assert.Equal(t, boundary.Neumann, sn[boundary.Left].Kind)
	assert.Equal(t, []float64{0}, eval(t, sn[boundary.Left].Value, nil, nil))
	assert.Equal(t, boundary.Dirichlet, sp[boundary.Right].Kind)
	assert.Equal(t, []float64{1}, eval(t, sp[boundary.Right].Value, nil, nil))

	// On a linear profile both seams carry its slope.
	sub, err := e.Mesh().Combine(negative, separator, positive)
	require.NoError(t, err)
	for _, seam := range []*expr.Node{ss[boundary.Left].Value, ss[boundary.Right].Value} {
		assert.InDelta(t, 1, eval(t, seam, sub.Nodes, nil)[0], 1e-12)
	}
}

func TestResolveBoundaryConditions_ChildConditionsKept(t *testing.T) {
	m, c := diffusionModel()
	own := boundary.Sides{
		boundary.Left:  {Value: expr.NewScalar(5), Kind: boundary.Dirichlet},
		boundary.Right: {Value: expr.NewScalar(6), Kind: boundary.Dirichlet},
	}
	m.BoundaryConditions.Put(c.Child(1), own)

	e := cellEngine(t)
	require.NoError(t, e.SetVariableSlices([]*expr.Node{c}))
	bcs, err := e.ResolveBoundaryConditions(m.BoundaryConditions)
	require.NoError(t, err)

	ss, _ := bcs.Get(c.Child(1))
	assert.Equal(t, boundary.Dirichlet, ss[boundary.Left].Kind)
	assert.Equal(t, []float64{5}, eval(t, ss[boundary.Left].Value, nil, nil))
	assert.Equal(t, []float64{6}, eval(t, ss[boundary.Right].Value, nil, nil))

	sn, _ := bcs.Get(c.Child(0))
	sp, _ := bcs.Get(c.Child(2))
	assert.NotSame(t, sn[boundary.Right].Value, sp[boundary.Left].Value)
}

func TestResolveBoundaryConditions_ConcatenationNeedsBothSides(t *testing.T) {
	m, c := diffusionModel()
	m.BoundaryConditions.Put(c, boundary.Sides{
		boundary.Left: {Value: expr.NewScalar(0), Kind: boundary.Neumann},
	})
	e := cellEngine(t)
	require.NoError(t, e.SetVariableSlices([]*expr.Node{c}))

	_, err := e.ResolveBoundaryConditions(m.BoundaryConditions)
	require.ErrorIs(t, err, modelerr.ErrConfiguration)
}

func tabMesh(t *testing.T, tabs map[string]string) *discretize.Engine {
	t.Helper()
	cc, err := uniform(t, "current collector", 0, 1, 4).WithTabs(tabs)
	require.NoError(t, err)
	m, err := mesh.New(cc)
	require.NoError(t, err)
	return newEngine(t, m, map[string]spatial.Method{"current collector": spatial.NewFiniteVolume()})
}

func TestProcessModel_Tabs(t *testing.T) {
	phi := expr.NewVariable("phi", expr.On("current collector"))

	testCases := []struct {
		name      string
		tabs      map[string]string
		sides     boundary.Sides
		wantLeft  boundary.Kind
		wantRight boundary.Kind
		wantErr   error
	}{
		{
			name: "tabs on opposite ends",
			tabs: map[string]string{mesh.NegativeTab: "left", mesh.PositiveTab: "right"},
			sides: boundary.Sides{
				boundary.NegativeTab: {Value: expr.NewScalar(0), Kind: boundary.Dirichlet},
				boundary.PositiveTab: {Value: expr.NewScalar(1), Kind: boundary.Neumann},
			},
			wantLeft:  boundary.Dirichlet,
			wantRight: boundary.Neumann,
		},
		{
			name: "reversed tabs",
			tabs: map[string]string{mesh.NegativeTab: "right", mesh.PositiveTab: "left"},
			sides: boundary.Sides{
				boundary.NegativeTab: {Value: expr.NewScalar(0), Kind: boundary.Dirichlet},
				boundary.PositiveTab: {Value: expr.NewScalar(1), Kind: boundary.Neumann},
			},
			wantLeft:  boundary.Neumann,
			wantRight: boundary.Dirichlet,
		},
		{
			name: "both tabs left",
			tabs: map[string]string{mesh.NegativeTab: "left", mesh.PositiveTab: "left"},
			sides: boundary.Sides{
				boundary.NegativeTab: {Value: expr.NewScalar(0), Kind: boundary.Dirichlet},
				boundary.NoTab:       {Value: expr.NewScalar(0), Kind: boundary.Neumann},
			},
			wantLeft:  boundary.Dirichlet,
			wantRight: boundary.Neumann,
		},
		{
			name: "two conditions on one end",
			tabs: map[string]string{mesh.NegativeTab: "left", mesh.PositiveTab: "left"},
			sides: boundary.Sides{
				boundary.NegativeTab: {Value: expr.NewScalar(0), Kind: boundary.Dirichlet},
				boundary.PositiveTab: {Value: expr.NewScalar(1), Kind: boundary.Neumann},
			},
			wantErr: modelerr.ErrConfiguration,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := model.New("current collector")
			m.Algebraic.Put(phi, expr.Laplacian(phi))
			m.InitialConditions.Put(phi, expr.NewScalar(0))
			m.BoundaryConditions.Put(phi, tc.sides)

			dm, err := tabMesh(t, tc.tabs).ProcessModel(context.Background(), m, discretize.Options{})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			sides, ok := dm.BoundaryConditions.Get(phi)
			require.True(t, ok)
			require.Len(t, sides, 2)
			assert.Equal(t, tc.wantLeft, sides[boundary.Left].Kind)
			assert.Equal(t, tc.wantRight, sides[boundary.Right].Kind)
		})
	}
}

func TestProcessModel_BoundaryOperatorOnTab(t *testing.T) {
	phi := expr.NewVariable("phi", expr.On("current collector"))
	m := model.New("current collector")
	m.Algebraic.Put(phi, expr.Laplacian(phi))
	m.InitialConditions.Put(phi, expr.NewScalar(0))
	m.BoundaryConditions.Put(phi, boundary.Sides{
		boundary.NegativeTab: {Value: expr.NewScalar(0.5), Kind: boundary.Dirichlet},
		boundary.PositiveTab: {Value: expr.NewScalar(2), Kind: boundary.Neumann},
	})
	m.Outputs.Put(model.Output{Name: "phi at negative tab", Expr: expr.BoundaryValue(phi, boundary.NegativeTab)})
	m.Outputs.Put(model.Output{Name: "current at positive tab", Expr: expr.BoundaryGradient(phi, boundary.PositiveTab)})

	e := tabMesh(t, map[string]string{mesh.NegativeTab: "right", mesh.PositiveTab: "left"})
	dm, err := e.ProcessModel(context.Background(), m, discretize.Options{})
	require.NoError(t, err)

	out, _ := dm.Outputs.Get("phi at negative tab")
	assert.Equal(t, []float64{0.5}, eval(t, out.Expr, nil, nil))
	out, _ = dm.Outputs.Get("current at positive tab")
	assert.Equal(t, []float64{2}, eval(t, out.Expr, nil, nil))
}

func TestProcessModel_TabsWithoutLocations(t *testing.T) {
	u := expr.NewVariable("u", expr.On(negative))
	m := model.New("no tabs")
	m.RHS.Put(u, expr.Divergence(expr.Grad(u)))
	m.InitialConditions.Put(u, expr.NewScalar(0))
	m.BoundaryConditions.Put(u, boundary.Sides{
		boundary.NegativeTab: {Value: expr.NewScalar(0), Kind: boundary.Dirichlet},
		boundary.Right:       {Value: expr.NewScalar(0), Kind: boundary.Neumann},
	})

	_, err := cellEngine(t).ProcessModel(context.Background(), m, discretize.Options{})
	require.ErrorIs(t, err, modelerr.ErrConfiguration)
}

func TestProcessModel_SphericalOrigin(t *testing.T) {
	particle, err := mesh.Uniform1D("particle", 0, 1, 5, mesh.SphericalPolar)
	require.NoError(t, err)
	msh, err := mesh.New(particle)
	require.NoError(t, err)
	c := expr.NewVariable("c_s", expr.On("particle"))
	outer := boundary.Condition{Value: expr.NewScalar(-1), Kind: boundary.Neumann}

	testCases := []struct {
		name    string
		sides   boundary.Sides
		wantErr bool
	}{
		{
			name:  "zero flux at the centre",
			sides: boundary.Sides{boundary.Left: {Value: expr.NewScalar(0), Kind: boundary.Neumann}, boundary.Right: outer},
		},
		{
			name:  "folded zero flux",
			sides: boundary.Sides{boundary.Left: {Value: expr.Sub(expr.NewScalar(1), expr.NewScalar(1)), Kind: boundary.Neumann}, boundary.Right: outer},
		},
		{
			name:    "value at the centre",
			sides:   boundary.Sides{boundary.Left: {Value: expr.NewScalar(0), Kind: boundary.Dirichlet}, boundary.Right: outer},
			wantErr: true,
		},
		{
			name:    "non-zero flux at the centre",
			sides:   boundary.Sides{boundary.Left: {Value: expr.NewScalar(1), Kind: boundary.Neumann}, boundary.Right: outer},
			wantErr: true,
		},
		{
			name:    "no condition at the centre",
			sides:   boundary.Sides{boundary.Right: outer},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := model.New("particle")
			m.RHS.Put(c, expr.Divergence(expr.Grad(c)))
			m.InitialConditions.Put(c, expr.NewScalar(1))
			m.BoundaryConditions.Put(c, tc.sides)

			e := newEngine(t, msh, map[string]spatial.Method{"particle": spatial.NewFiniteVolume()})
			_, err := e.ProcessModel(context.Background(), m, discretize.Options{})
			if tc.wantErr {
				require.ErrorIs(t, err, modelerr.ErrConfiguration)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProcessModel_ExternalVariables(t *testing.T) {
	temp := expr.NewVariable("T", expr.On(negative))
	u := expr.NewVariable("u", expr.On(negative))
	m := model.New("external")
	m.RHS.Put(u, expr.Mul(temp, u))
	m.InitialConditions.Put(u, expr.NewScalar(1))
	m.ExternalVariables = []*expr.Node{temp}
	m.BoundaryConditions.Put(temp, boundary.Sides{
		boundary.Left: {Value: expr.NewScalar(7), Kind: boundary.Neumann},
	})

	dm, err := cellEngine(t).ProcessModel(context.Background(), m, discretize.Options{})
	require.NoError(t, err)
	require.Equal(t, 5, dm.Size())

	inputs := map[string][]float64{"T": {1, 2, 3, 4, 5}}
	rhs, err := dm.EvalRHS(0, repeat(1, 5), inputs)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, rhs)

	sides, ok := dm.BoundaryConditions.Get(temp)
	require.True(t, ok)
	require.Len(t, sides, 2)
	assert.Equal(t, []float64{7}, eval(t, sides[boundary.Left].Value, nil, inputs))
	assert.Equal(t, boundary.Neumann, sides[boundary.Right].Kind)
	assert.InDelta(t, 5, eval(t, sides[boundary.Right].Value, nil, inputs)[0], 1e-9)

	user, _ := m.BoundaryConditions.Get(temp)
	assert.Len(t, user, 1, "the model's conditions must not change")
}

func TestProcessModel_SphericalExternal(t *testing.T) {
	particle, err := mesh.Uniform1D("particle", 0, 1, 5, mesh.SphericalPolar)
	require.NoError(t, err)
	msh, err := mesh.New(particle)
	require.NoError(t, err)

	temp := expr.NewVariable("T", expr.On("particle"))
	c := expr.NewVariable("c_s", expr.On("particle"))
	m := model.New("particle")
	m.RHS.Put(c, expr.Mul(temp, c))
	m.InitialConditions.Put(c, expr.NewScalar(1))
	m.ExternalVariables = []*expr.Node{temp}

	e := newEngine(t, msh, map[string]spatial.Method{"particle": spatial.NewFiniteVolume()})
	dm, err := e.ProcessModel(context.Background(), m, discretize.Options{})
	require.NoError(t, err, "external variables are exempt from the zero flux rule at r = 0")

	sides, ok := dm.BoundaryConditions.Get(temp)
	require.True(t, ok)
	assert.Equal(t, boundary.Neumann, sides[boundary.Left].Kind)

	rhs, err := dm.EvalRHS(0, repeat(1, 5), map[string][]float64{"T": {1, 2, 3, 4, 5}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, rhs)
}

func TestProcessModel_ConcatenatedExternal(t *testing.T) {
	tn := expr.NewVariable("T_n", expr.On(negative))
	ts := expr.NewVariable("T_s", expr.On(separator))
	tp := expr.NewVariable("T_p", expr.On(positive))
	temp := expr.NewConcatenationVariable("T", tn, ts, tp)

	c := expr.NewConcatenationVariable("c",
		expr.NewVariable("c_n", expr.On(negative)),
		expr.NewVariable("c_s", expr.On(separator)),
		expr.NewVariable("c_p", expr.On(positive)),
	)
	u := expr.NewVariable("u", expr.On(separator))

	m := model.New("external concatenation")
	m.RHS.Put(c, temp)
	m.RHS.Put(u, expr.Mul(ts, u))
	m.InitialConditions.Put(c, expr.NewScalar(0))
	m.InitialConditions.Put(u, expr.NewScalar(1))
	m.ExternalVariables = []*expr.Node{temp}

	dm, err := cellEngine(t).ProcessModel(context.Background(), m, discretize.Options{})
	require.NoError(t, err)
	require.Equal(t, 16, dm.Size())

	values := make([]float64, 13)
	for i := range values {
		values[i] = float64(i + 1)
	}
	y0, err := dm.InitialState(nil)
	require.NoError(t, err)
	rhs, err := dm.EvalRHS(0, y0, map[string][]float64{"T": values})
	require.NoError(t, err)

	// The whole external fills c; the separator child is the middle range.
	assert.Equal(t, values, rhs[:13])
	assert.Equal(t, []float64{6, 7, 8}, rhs[13:])
}
