package discretize_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/discretego/internal/ctxlog"
	"github.com/vk/discretego/internal/discretize"
	"github.com/vk/discretego/internal/expr"
	"github.com/vk/discretego/internal/mesh"
	"github.com/vk/discretego/internal/spatial"
)

const (
	negative  = "negative electrode"
	separator = "separator"
	positive  = "positive electrode"
)

func uniform(t *testing.T, domain string, lo, hi float64, n int) *mesh.SubMesh {
	t.Helper()
	s, err := mesh.Uniform1D(domain, lo, hi, n, mesh.Cartesian)
	require.NoError(t, err)
	return s
}

// cellMesh returns a through-cell mesh with 5, 3 and 5 cells.
func cellMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.New(
		uniform(t, negative, 0, 1, 5),
		uniform(t, separator, 1, 1.6, 3),
		uniform(t, positive, 1.6, 2.6, 5),
	)
	require.NoError(t, err)
	return m
}

// cellEngine returns an engine over cellMesh with finite volumes everywhere.
func cellEngine(t *testing.T, opts ...discretize.Option) *discretize.Engine {
	t.Helper()
	e, err := discretize.New(cellMesh(t), map[string]spatial.Method{
		discretize.Macroscale: spatial.NewFiniteVolume(),
	}, opts...)
	require.NoError(t, err)
	return e
}

func newEngine(t *testing.T, m *mesh.Mesh, methods map[string]spatial.Method, opts ...discretize.Option) *discretize.Engine {
	t.Helper()
	e, err := discretize.New(m, methods, opts...)
	require.NoError(t, err)
	return e
}

// testContext returns a context whose logger writes into a buffer.
func testContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger), &buf
}

func eval(t *testing.T, n *expr.Node, y []float64, inputs map[string][]float64) []float64 {
	t.Helper()
	m, err := expr.Evaluate(n, expr.EvalContext{Y: y, Inputs: inputs})
	require.NoError(t, err)
	r, c := m.Dims()
	require.Equal(t, 1, c)
	out := make([]float64, r)
	for i := range out {
		out[i] = m.At(i, 0)
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
