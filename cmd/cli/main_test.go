package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/discretego/internal/testutil"
	"github.com/vk/discretego/modules/finitevolume"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Registering the same spatial method twice panics inside app.NewApp().
	dir := testutil.WriteFiles(t, map[string]string{"mesh.hcl": testutil.ThroughCell})
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, []string{dir}, &finitevolume.Module{}, &finitevolume.Module{})

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	require.Contains(t, runErr.Error(), "application startup panicked", "The error message should indicate that a panic was recovered.")
	require.Contains(t, runErr.Error(), "finite volume", "The error message should contain the underlying reason for the panic.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	filePath := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte("model \"m\" {\n"), 0600))
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, []string{filePath})

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse HCL file")
}

func TestRun_Discretizes(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := testutil.WriteFiles(t, map[string]string{
		"mesh.hcl":      testutil.ThroughCell,
		"diffusion.hcl": testutil.Diffusion,
	})
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, []string{"-log-level", "error", "-input", "I=1", dir})

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), `model "diffusion"`)
	require.Contains(t, out.String(), "states: 14")
	require.Contains(t, out.String(), "rhs at t=0: max |f| 1")
}
