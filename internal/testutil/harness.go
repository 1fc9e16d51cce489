package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/stretchr/testify/require"
	"github.com/vk/discretego/internal/app"
	"github.com/vk/discretego/internal/config"
	"github.com/vk/discretego/internal/hcl_adapter"
	"github.com/vk/discretego/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles writes files, keyed by relative path, into a fresh temporary
// directory and returns its path. HCL sources are normalised with the
// canonical formatter first.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", ".tmp-discretego-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		src := []byte(content)
		if filepath.Ext(name) == ".hcl" {
			src = hclwrite.Format(src)
		}
		require.NoError(t, os.WriteFile(filePath, src, 0644))
	}
	return tmpDir
}

// LoadHCL writes src to a single file and loads it with the HCL loader.
func LoadHCL(t *testing.T, src string) (*config.Model, error) {
	t.Helper()
	dir := WriteFiles(t, map[string]string{"main.hcl": src})
	return hcl_adapter.NewLoader().Load(context.Background(), dir)
}

// HarnessResult holds the outcome of an application run.
type HarnessResult struct {
	Output string
	Err    error
	App    *app.App
}

// RunApp writes files to a temporary directory, points cfg at it and runs
// the application end to end. Output and logs are captured together.
func RunApp(t *testing.T, files map[string]string, cfg app.Config, modules ...registry.Module) *HarnessResult {
	t.Helper()

	cfg.ModelPath = WriteFiles(t, files)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("DISCRETEGO_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
		}
	})

	a, err := app.NewApp(out, appConfig, hcl_adapter.NewLoader(), modules...)
	if err != nil {
		return &HarnessResult{Output: out.String(), Err: err}
	}
	err = a.Run(context.Background())
	return &HarnessResult{Output: out.String(), Err: err, App: a}
}
