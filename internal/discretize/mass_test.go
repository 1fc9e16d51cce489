package discretize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/discretego/internal/discretize"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/model"
	"github.com/vk/discretego/internal/modelerr"
	"github.com/vk/discretego/internal/spatial"
	"gonum.org/v1/gonum/mat"
)

func TestBlockDiag(t *testing.T) {
	b := discretize.NewBlockDiag(spatial.Identity(2), mat.NewDense(1, 1, []float64{3}))
	want := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 3,
	})
	assert.True(t, mat.Equal(b, want))
	assert.True(t, mat.Equal(b.T(), want.T()))
	assert.Len(t, b.Blocks(), 2)

	assert.Panics(t, func() { discretize.NewBlockDiag(mat.NewDense(1, 2, nil)) })
	assert.Panics(t, func() { b.At(3, 0) })
}

func TestCreateMassMatrix(t *testing.T) {
	e := cellEngine(t)
	q := expr.NewVariable("Q", expr.Domains{})
	u := expr.NewVariable("u", expr.On(negative))
	require.NoError(t, e.SetVariableSlices([]*expr.Node{u, q}))

	// Blocks follow the layout, not the order of the keys.
	mass, inv, err := e.CreateMassMatrix([]*expr.Node{q, u}, 2)
	require.NoError(t, err)
	r, c := mass.Dims()
	require.Equal(t, 8, r)
	require.Equal(t, 8, c)

	want := mat.NewDense(8, 8, nil)
	for i := 0; i < 6; i++ {
		want.Set(i, i, 1)
	}
	assert.True(t, mat.Equal(mass, want))
	assert.True(t, mat.Equal(inv, spatial.Identity(6)))

	_, _, err = e.CreateMassMatrix([]*expr.Node{expr.NewVariable("w", expr.Domains{})}, 0)
	require.ErrorIs(t, err, modelerr.ErrConfiguration)
}

func TestCanonicalConcat(t *testing.T) {
	a := expr.NewVariable("a", expr.Domains{})
	b := expr.NewVariable("b", expr.Domains{})
	ys := model.NewSliceTable()
	ys.Append(b, expr.Slice{Start: 0, Stop: 3})
	ys.Append(a, expr.Slice{Start: 3, Stop: 5})

	eqs := model.NewEquations()
	eqs.Put(a, expr.NewVector(4, 5))
	eqs.Put(b, expr.NewVector(1, 2, 3))

	out, err := discretize.CanonicalConcat(eqs, ys)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, eval(t, out, nil, nil))

	empty, err := discretize.CanonicalConcat(model.NewEquations(), ys)
	require.NoError(t, err)
	assert.Nil(t, empty)

	eqs.Put(expr.NewVariable("c", expr.Domains{}), expr.NewScalar(0))
	_, err = discretize.CanonicalConcat(eqs, ys)
	require.ErrorIs(t, err, modelerr.ErrConfiguration)
}
