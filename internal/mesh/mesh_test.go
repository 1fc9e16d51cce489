package mesh_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/discretego/internal/mesh"
	"github.com/vk/discretego/internal/modelerr"
)

func cellMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	n, err := mesh.Uniform1D("negative electrode", 0, 0.4, 4, mesh.Cartesian)
	require.NoError(t, err)
	s, err := mesh.Uniform1D("separator", 0.4, 0.6, 2, mesh.Cartesian)
	require.NoError(t, err)
	p, err := mesh.Uniform1D("positive electrode", 0.6, 1, 4, mesh.Cartesian)
	require.NoError(t, err)
	m, err := mesh.New(n, s, p, mesh.Point("current collector"))
	require.NoError(t, err)
	return m
}

func TestUniform1D(t *testing.T) {
	s, err := mesh.Uniform1D("x", 0, 1, 4, "")
	require.NoError(t, err)
	require.Equal(t, mesh.Cartesian, s.CoordSys)
	require.Equal(t, 4, s.NPts())
	require.Equal(t, 5, s.NEdges())
	require.InDeltaSlice(t, []float64{0.125, 0.375, 0.625, 0.875}, s.Nodes, 1e-12)
	require.InDeltaSlice(t, []float64{0.25, 0.25, 0.25, 0.25}, s.CellWidths(), 1e-12)
	require.InDeltaSlice(t, []float64{0.25, 0.25, 0.25}, s.NodeSpacing(), 1e-12)

	testCases := []struct {
		name  string
		lo    float64
		hi    float64
		npts  int
		coord string
	}{
		{name: "no points", lo: 0, hi: 1, npts: 0},
		{name: "empty interval", lo: 1, hi: 1, npts: 3},
		{name: "unknown coordinates", lo: 0, hi: 1, npts: 3, coord: "polar"},
		{name: "negative radius", lo: -1, hi: 1, npts: 3, coord: mesh.SphericalPolar},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mesh.Uniform1D("x", tc.lo, tc.hi, tc.npts, tc.coord)
			require.ErrorIs(t, err, modelerr.ErrConfiguration)
		})
	}
}

func TestMesh_GetAndNPts(t *testing.T) {
	m := cellMesh(t)
	require.Equal(t, []string{"negative electrode", "separator", "positive electrode", "current collector"}, m.Domains())

	cc, err := m.Get("current collector")
	require.NoError(t, err)
	require.Equal(t, 0, cc.Dim)
	require.Equal(t, 1, cc.NPts())

	total, err := m.NPts([]string{"negative electrode", "separator", "positive electrode"})
	require.NoError(t, err)
	require.Equal(t, 10, total)

	_, err = m.Get("nowhere")
	require.True(t, errors.Is(err, modelerr.ErrDomain))

	err = m.Add(mesh.Point("separator"))
	require.ErrorIs(t, err, modelerr.ErrConfiguration)
}

func TestMesh_Combine(t *testing.T) {
	m := cellMesh(t)

	combined, err := m.Combine("negative electrode", "separator", "positive electrode")
	require.NoError(t, err)
	require.Equal(t, 10, combined.NPts())
	require.Equal(t, 11, combined.NEdges())
	require.InDelta(t, 0.0, combined.Edges[0], 1e-12)
	require.InDelta(t, 1.0, combined.Edges[10], 1e-12)

	single, err := m.Combine("separator")
	require.NoError(t, err)
	require.Equal(t, "separator", single.Domain)

	_, err = m.Combine("negative electrode", "positive electrode")
	require.ErrorIs(t, err, modelerr.ErrDomain, "non-adjoining domains")

	_, err = m.Combine("separator", "current collector")
	require.ErrorIs(t, err, modelerr.ErrDomain, "zero-dimensional domain")
}

func TestSubMesh_WithTabs(t *testing.T) {
	s, err := mesh.Uniform1D("current collector", 0, 1, 5, mesh.Cartesian)
	require.NoError(t, err)

	tabbed, err := s.WithTabs(map[string]string{mesh.NegativeTab: "left", mesh.PositiveTab: "right"})
	require.NoError(t, err)
	side, ok := tabbed.TabSide(mesh.PositiveTab)
	require.True(t, ok)
	require.Equal(t, "right", side)
	require.Nil(t, s.Tabs, "original must not change")

	_, err = s.WithTabs(map[string]string{mesh.NegativeTab: "top"})
	require.ErrorIs(t, err, modelerr.ErrConfiguration)

	_, err = mesh.Point("cc").WithTabs(map[string]string{mesh.NegativeTab: "left"})
	require.ErrorIs(t, err, modelerr.ErrConfiguration)
}
