package spatial_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/mesh"
	"github.com/vk/discretego/internal/modelerr"
	"github.com/vk/discretego/internal/spatial"
	"gonum.org/v1/gonum/mat"
)

func TestZeroDimensional(t *testing.T) {
	m, err := mesh.New(mesh.Point("current collector"))
	require.NoError(t, err)
	z := spatial.NewZeroDimensional()
	require.NoError(t, z.Build(m))
	require.True(t, z.ZeroDimensional())

	v := expr.NewVariable("T", expr.On("current collector"))
	disc := expr.NewStateVector(v.Domains(), expr.Slice{Start: 0, Stop: 1})

	mass, err := z.MassMatrix(v, nil)
	require.NoError(t, err)
	require.True(t, mat.Equal(spatial.Identity(1), mass))

	integral, err := z.Integral(v, disc, nil)
	require.NoError(t, err)
	require.Equal(t, disc.Slices(), integral.Slices())
	require.True(t, integral.Domains().Empty())

	bv, err := z.BoundaryValueOrFlux(expr.BoundaryValue(v, "left"), disc, nil)
	require.NoError(t, err)
	require.Equal(t, expr.KindStateVector, bv.Kind())

	_, err = z.Gradient(v, disc, nil)
	require.ErrorIs(t, err, modelerr.ErrDomain)
	_, err = z.BoundaryValueOrFlux(expr.BoundaryGradient(v, "left"), disc, nil)
	require.ErrorIs(t, err, modelerr.ErrDomain)
}
