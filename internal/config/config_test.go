package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitializeDefaultsWithNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, Initialize())

	require.Equal(t, "500ms", GetString("watch.debounce"))
	require.Equal(t, "", MetricsAddr())
	require.False(t, GetBool("no-daemon"))
}

func TestInitializeReadsProjectConfigFile(t *testing.T) {
	dir := t.TempDir()
	metaDir := filepath.Join(dir, ".chronolog")
	require.NoError(t, os.MkdirAll(metaDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(metaDir, "config.yaml"), []byte("watch:\n  debounce: 1s\n"), 0o644))

	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	chdir(t, nested)

	require.NoError(t, Initialize())
	require.Equal(t, "1s", GetString("watch.debounce"))
}

func TestEnvironmentVariableOverridesDefault(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CHRONOLOG_METRICS_ADDR", "127.0.0.1:9100")

	require.NoError(t, Initialize())
	require.Equal(t, "127.0.0.1:9100", MetricsAddr())
}

func TestSetOverridesConfiguredValue(t *testing.T) {
	chdir(t, t.TempDir())
	require.NoError(t, Initialize())

	Set("no-daemon", true)
	require.True(t, GetBool("no-daemon"))
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(original) })
}
