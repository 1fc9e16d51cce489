package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/discretego/internal/fsutil"
)

func TestFindFilesByExtension(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"b.hcl",
		"a.hcl",
		"notes.md",
		"models/spm.hcl",
		"models/spm.hcl.bak",
		".git/config.hcl",
	} {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	files, err := fsutil.FindFilesByExtension(root, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.hcl"),
		filepath.Join(root, "b.hcl"),
		filepath.Join(root, "models", "spm.hcl"),
	}, files)

	files, err = fsutil.FindFilesByExtension(root, ".md", ".bak")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = fsutil.FindFilesByExtension(filepath.Join(root, "missing"), ".hcl")
	require.Error(t, err)

	assert.Panics(t, func() { _, _ = fsutil.FindFilesByExtension(root) })
}
