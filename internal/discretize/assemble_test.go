package discretize_test

import (
	"cmp"
	"context"
	"slices"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/discretego/internal/boundary"
	"github.com/vk/discretego/internal/discretize"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/mesh"
	"github.com/vk/discretego/internal/model"
	"github.com/vk/discretego/internal/modelerr"
	"github.com/vk/discretego/internal/spatial"
	"gonum.org/v1/gonum/mat"
)

// diffusionModel is a 5/3/5 concatenated variable diffusing under a zero
// flux on the left and a fixed value on the right.
func diffusionModel() (*model.Model, *expr.Node) {
	cn := expr.NewVariable("c_n", expr.On(negative))
	cs := expr.NewVariable("c_s", expr.On(separator))
	cp := expr.NewVariable("c_p", expr.On(positive))
	c := expr.NewConcatenationVariable("c", cn, cs, cp)

	m := model.New("diffusion")
	m.RHS.Put(c, expr.Divergence(expr.Grad(c)))
	m.InitialConditions.Put(c, expr.NewScalar(1))
	m.BoundaryConditions.Put(c, boundary.Sides{
		boundary.Left:  {Value: expr.NewScalar(0), Kind: boundary.Neumann},
		boundary.Right: {Value: expr.NewScalar(1), Kind: boundary.Dirichlet},
	})
	return m, c
}

// mixedModel has a scalar, a field and a concatenated field, with both
// differential and algebraic equations.
func mixedModel() *model.Model {
	q := expr.NewVariable("Q", expr.Domains{})
	u := expr.NewVariable("u", expr.On(negative))
	phi := expr.NewVariable("phi", expr.On(positive))
	m, c := diffusionModel()
	m.Name = "mixed"
	m.RHS.Put(q, expr.NewInputParameter("I"))
	m.RHS.Put(u, expr.Neg(u))
	m.Algebraic.Put(phi, expr.Sub(phi, expr.NewScalar(2)))
	m.InitialConditions.Put(q, expr.NewScalar(0))
	m.InitialConditions.Put(u, expr.NewSpatialVariable("x", expr.On(negative), mesh.Cartesian))
	m.InitialConditions.Put(phi, expr.NewScalar(2))
	m.Outputs.Put(model.Output{Name: "c", Expr: c})
	m.Outputs.Put(model.Output{Name: "u average", Expr: expr.XAverage(u)})
	m.Events = append(m.Events, model.Event{
		Name: "Q limit",
		Expr: expr.Sub(expr.NewScalar(10), q),
		Type: model.Termination,
	})
	return m
}

func TestProcessModel_ScalarUnknown(t *testing.T) {
	ctx, logs := testContext(t)
	q := expr.NewVariable("Q", expr.Domains{})
	m := model.New("scalar")
	m.RHS.Put(q, expr.NewInputParameter("I"))
	m.InitialConditions.Put(q, expr.NewScalar(0))

	dm, err := cellEngine(t).ProcessModel(ctx, m, discretize.Options{})
	require.NoError(t, err)

	s, ok := dm.YSlices.Get(q)
	require.True(t, ok)
	assert.Equal(t, []expr.Slice{{Start: 0, Stop: 1}}, s)
	assert.True(t, mat.Equal(dm.MassMatrix, mat.NewDense(1, 1, []float64{1})))
	assert.Equal(t, 1, dm.Size())
	assert.Equal(t, m.ID, dm.Source)
	assert.True(t, m.Discretized())

	rhs, err := dm.EvalRHS(0, []float64{0}, map[string][]float64{"I": {2.5}})
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5}, rhs)
	assert.Contains(t, logs.String(), "Finished discretization.")
}

func TestProcessModel_AlgebraicFields(t *testing.T) {
	m, err := mesh.New(uniform(t, negative, 0, 1, 20), uniform(t, positive, 1, 2, 20))
	require.NoError(t, err)
	fv := spatial.NewFiniteVolume()
	e := newEngine(t, m, map[string]spatial.Method{negative: fv, positive: fv})

	cn := expr.NewVariable("c_n", expr.On(negative))
	cp := expr.NewVariable("c_p", expr.On(positive))
	md := model.New("algebraic")
	md.Algebraic.Put(cn, expr.Sub(cn, expr.NewScalar(1)))
	md.Algebraic.Put(cp, expr.Sub(cp, expr.NewScalar(2)))
	md.InitialConditions.Put(cn, expr.NewScalar(1))
	md.InitialConditions.Put(cp, expr.NewScalar(2))

	dm, err := e.ProcessModel(context.Background(), md, discretize.Options{})
	require.NoError(t, err)

	require.Equal(t, 40, dm.Size())
	assert.Equal(t, 0, dm.LenRHS)
	assert.Equal(t, 40, dm.LenAlgebraic)
	s, _ := dm.YSlices.Get(cn)
	assert.Equal(t, []expr.Slice{{Start: 0, Stop: 20}}, s)
	s, _ = dm.YSlices.Get(cp)
	assert.Equal(t, []expr.Slice{{Start: 20, Stop: 40}}, s)

	assert.True(t, mat.Equal(dm.MassMatrix, mat.NewDense(40, 40, nil)))
	assert.Nil(t, dm.MassMatrixInv)
	assert.Nil(t, dm.ConcatenatedRHS)

	y0, err := dm.InitialState(nil)
	require.NoError(t, err)
	assert.Equal(t, append(repeat(1, 20), repeat(2, 20)...), y0)
	res, err := dm.EvalAlgebraic(0, y0, nil)
	require.NoError(t, err)
	assert.Equal(t, repeat(0, 40), res)
}

func TestProcessModel_ConcatenatedDiffusion(t *testing.T) {
	m, c := diffusionModel()
	dm, err := cellEngine(t).ProcessModel(context.Background(), m, discretize.Options{})
	require.NoError(t, err)

	require.Equal(t, 13, dm.Size())
	y0, err := dm.InitialState(nil)
	require.NoError(t, err)
	assert.Equal(t, repeat(1, 13), y0)

	// A uniform field matching the Dirichlet value is steady.
	rhs, err := dm.EvalRHS(0, y0, nil)
	require.NoError(t, err)
	for i, v := range rhs {
		assert.InDelta(t, 0, v, 1e-9, "row %d", i)
	}

	for i, child := range c.Children() {
		sides, ok := dm.BoundaryConditions.Get(child)
		require.True(t, ok, "child %d", i)
		assert.Len(t, sides, 2)
	}
	_, ok := m.BoundaryConditions.Get(c.Child(1))
	assert.False(t, ok, "resolution must not touch the model's conditions")
}

func TestProcessModel_Rediscretize(t *testing.T) {
	m, _ := diffusionModel()
	e := cellEngine(t)

	_, err := e.ProcessModel(context.Background(), m, discretize.Options{})
	require.NoError(t, err)

	_, err = e.ProcessModel(context.Background(), m, discretize.Options{})
	require.ErrorIs(t, err, modelerr.ErrConfiguration)

	dm, err := e.ProcessModel(context.Background(), m.Copy(), discretize.Options{})
	require.NoError(t, err)
	assert.Equal(t, 13, dm.Size())
}

func TestProcessModel_Partitioning(t *testing.T) {
	m := mixedModel()
	dm, err := cellEngine(t).ProcessModel(context.Background(), m, discretize.Options{})
	require.NoError(t, err)

	var all []expr.Slice
	for _, k := range m.Unknowns() {
		s, ok := dm.YSlices.Get(k)
		require.True(t, ok, k.Name())
		all = append(all, s...)
	}
	slices.SortFunc(all, func(a, b expr.Slice) int { return cmp.Compare(a.Start, b.Start) })

	next := 0
	for _, s := range all {
		assert.Equal(t, next, s.Start, "gap or overlap at %v", s)
		next = s.Stop
	}
	assert.Equal(t, dm.Size(), next)
	assert.Equal(t, 13+1+5+5, dm.Size())
	assert.Len(t, dm.Lower, dm.Size())
	assert.Len(t, dm.Upper, dm.Size())
}

func TestProcessModel_Deterministic(t *testing.T) {
	run := func() (*model.Model, *model.Discretized) {
		m := mixedModel()
		dm, err := cellEngine(t).ProcessModel(context.Background(), m, discretize.Options{})
		require.NoError(t, err)
		return m, dm
	}
	m1, dm1 := run()
	m2, dm2 := run()

	u1, u2 := m1.Unknowns(), m2.Unknowns()
	require.Len(t, u2, len(u1))
	for i := range u1 {
		require.Equal(t, u1[i].ID(), u2[i].ID())
		s1, _ := dm1.YSlices.Get(u1[i])
		s2, _ := dm2.YSlices.Get(u2[i])
		assert.Equal(t, s1, s2, u1[i].Name())
	}

	y1, err := dm1.InitialState(nil)
	require.NoError(t, err)
	y2, err := dm2.InitialState(nil)
	require.NoError(t, err)
	if diff := gocmp.Diff(y1, y2, cmpopts.EquateApprox(0, 1e-15)); diff != "" {
		t.Errorf("initial states differ (-first +second):\n%s", diff)
	}
}

func TestProcessModel_RoundTrip(t *testing.T) {
	m := mixedModel()
	e := cellEngine(t)
	dm, err := e.ProcessModel(context.Background(), m, discretize.Options{})
	require.NoError(t, err)

	y0, err := dm.InitialState(nil)
	require.NoError(t, err)
	for _, k := range m.Unknowns() {
		probe, err := e.Lower(k)
		require.NoError(t, err)
		ic, _ := dm.InitialConditions.Get(k)
		assert.Equal(t, eval(t, ic, nil, nil), eval(t, probe, y0, nil), k.Name())
	}
}

func TestProcessModel_MassMatrix(t *testing.T) {
	m := mixedModel()
	dm, err := cellEngine(t).ProcessModel(context.Background(), m, discretize.Options{})
	require.NoError(t, err)

	r, c := dm.MassMatrix.Dims()
	require.Equal(t, dm.Size(), r)
	require.Equal(t, dm.Size(), c)
	require.Equal(t, 13+1+5, dm.LenRHS)
	require.Equal(t, 5, dm.LenAlgebraic)

	full := mat.DenseCopyOf(dm.MassMatrix)
	ode := full.Slice(0, dm.LenRHS, 0, dm.LenRHS)
	var prod mat.Dense
	prod.Mul(ode, dm.MassMatrixInv)
	assert.True(t, mat.EqualApprox(&prod, spatial.Identity(dm.LenRHS), 1e-12))

	alg := full.Slice(dm.LenRHS, r, dm.LenRHS, c)
	assert.True(t, mat.Equal(alg, mat.NewDense(dm.LenAlgebraic, dm.LenAlgebraic, nil)))
	assert.Equal(t, 0.0, full.At(0, dm.LenRHS))
}

func TestProcessModel_OutputsAndEvents(t *testing.T) {
	m := mixedModel()
	dm, err := cellEngine(t).ProcessModel(context.Background(), m, discretize.Options{})
	require.NoError(t, err)
	y0, err := dm.InitialState(nil)
	require.NoError(t, err)

	avg, ok := dm.Outputs.Get("u average")
	require.True(t, ok)
	assert.InDelta(t, 0.5, eval(t, avg.Expr, y0, nil)[0], 1e-12)

	c, ok := dm.Outputs.Get("c")
	require.True(t, ok)
	assert.Equal(t, repeat(1, 13), eval(t, c.Expr, y0, nil))

	events, err := dm.EvalEvents(0, y0, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, []float64{10}, events[0])
	assert.Equal(t, model.Termination, dm.Events[0].Type)
}

func TestProcessModel_Jacobian(t *testing.T) {
	q := expr.NewVariable("Q", expr.Domains{})
	p := expr.NewVariable("P", expr.Domains{})
	m := model.New("jacobian")
	m.RHS.Put(q, expr.Mul(q, q))
	m.Algebraic.Put(p, expr.Sub(p, expr.Mul(expr.NewScalar(2), q)))
	m.InitialConditions.Put(q, expr.NewScalar(3))
	m.InitialConditions.Put(p, expr.NewScalar(6))

	dm, err := cellEngine(t).ProcessModel(context.Background(), m, discretize.Options{BuildJacobian: true})
	require.NoError(t, err)
	require.NotNil(t, dm.JacobianRHS)
	require.NotNil(t, dm.JacobianAlgebraic)

	jac, err := dm.EvalJacobian(0, []float64{3, 1}, nil)
	require.NoError(t, err)
	want := mat.NewDense(2, 2, []float64{6, 0, -2, 1})
	assert.True(t, mat.EqualApprox(jac, want, 1e-12), "got %v", mat.Formatted(jac))

	plain, err := cellEngine(t).ProcessModel(context.Background(), m.Copy(), discretize.Options{})
	require.NoError(t, err)
	_, err = plain.EvalJacobian(0, []float64{3, 1}, nil)
	require.Error(t, err)
}

func TestProcessModel_Errors(t *testing.T) {
	u := expr.NewVariable("u", expr.On(negative))
	v := expr.NewVariable("v", expr.On(negative))

	testCases := []struct {
		name    string
		build   func() *model.Model
		wantErr error
	}{
		{
			name:    "empty model",
			build:   func() *model.Model { return model.New("empty") },
			wantErr: modelerr.ErrConfiguration,
		},
		{
			name: "missing initial condition",
			build: func() *model.Model {
				m := model.New("no ic")
				m.RHS.Put(u, expr.Neg(u))
				return m
			},
			wantErr: modelerr.ErrConfiguration,
		},
		{
			name: "unknown variable in equation",
			build: func() *model.Model {
				m := model.New("dangling")
				m.RHS.Put(u, expr.Neg(v))
				m.InitialConditions.Put(u, expr.NewScalar(0))
				return m
			},
			wantErr: modelerr.ErrConfiguration,
		},
		{
			name: "gradient without boundary conditions",
			build: func() *model.Model {
				m := model.New("no bcs")
				m.RHS.Put(u, expr.Divergence(expr.Grad(u)))
				m.InitialConditions.Put(u, expr.NewScalar(0))
				return m
			},
			wantErr: modelerr.ErrConfiguration,
		},
		{
			name: "initial condition out of bounds",
			build: func() *model.Model {
				w := expr.NewBoundedVariable("w", expr.Domains{}, 0, 1)
				m := model.New("bounds")
				m.RHS.Put(w, expr.NewScalar(0))
				m.InitialConditions.Put(w, expr.NewScalar(2))
				return m
			},
			wantErr: modelerr.ErrConfiguration,
		},
		{
			name: "unknown on a domain without a method",
			build: func() *model.Model {
				x := expr.NewVariable("x", expr.On("current collector"))
				m := model.New("no method")
				m.RHS.Put(x, expr.NewScalar(0))
				m.InitialConditions.Put(x, expr.NewScalar(0))
				return m
			},
			wantErr: modelerr.ErrDomain,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.build()
			_, err := cellEngine(t).ProcessModel(context.Background(), m, discretize.Options{})
			require.ErrorIs(t, err, tc.wantErr)
			assert.False(t, m.Discretized())
		})
	}
}

func TestProcessModel_SkipChecks(t *testing.T) {
	w := expr.NewBoundedVariable("w", expr.Domains{}, 0, 1)
	m := model.New("bounds")
	m.RHS.Put(w, expr.NewScalar(0))
	m.InitialConditions.Put(w, expr.NewScalar(2))

	dm, err := cellEngine(t).ProcessModel(context.Background(), m, discretize.Options{SkipChecks: true})
	require.NoError(t, err)
	y0, err := dm.InitialState(nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, y0)
}
