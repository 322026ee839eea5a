package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egoavara/mapstore-plugins/internal/bundle/bundletest"
	"github.com/egoavara/mapstore-plugins/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestResolveSettings(t *testing.T) {
	cfg := config.NewConfig()
	cfg.WebRoot = "/from/config"
	cfg.BundlesPath = "configured"

	flags := rootCmd.PersistentFlags()
	s := resolveSettings(flags, cfg)
	if !flags.Changed("web-root") {
		assert.Equal(t, "/from/config", s.WebRoot)
	}

	require.NoError(t, flags.Set("bundles-path", "custom"))
	s = resolveSettings(flags, cfg)
	assert.Equal(t, "custom", s.BundlesPath)
}

func TestUploadListUninstall(t *testing.T) {
	t.Setenv(config.DirEnv, t.TempDir())

	webDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(webDir, "pluginsConfig.json"),
		[]byte(`{"plugins":[{"name":"Map"},{"name":"Toolbar"}]}`), 0644))

	archive := filepath.Join(t.TempDir(), "my.zip")
	require.NoError(t, os.WriteFile(archive, bundletest.Sample(t), 0644))

	out, err := execute(t, "upload", archive, "--web-root", webDir, "--bundles-path", "dist/extensions")
	require.NoError(t, err)
	assert.Contains(t, out, `{"name":"My","dependencies":["Toolbar"],"extension":true}`)
	assert.FileExists(t, filepath.Join(webDir, "dist", "extensions", "My", "myplugin.js"))

	out, err = execute(t, "list", "--web-root", webDir)
	require.NoError(t, err)
	assert.Contains(t, out, "dist/extensions/My/myplugin.js")

	out, err = execute(t, "search", "tool", "--web-root", webDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Toolbar")

	_, err = execute(t, "uninstall", "My", "--yes", "--web-root", webDir)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(webDir, "dist", "extensions", "My"))

	_, err = execute(t, "uninstall", "My", "--yes", "--web-root", webDir)
	require.Error(t, err)
}

func TestUpload_InvalidArchive(t *testing.T) {
	t.Setenv(config.DirEnv, t.TempDir())

	webDir := t.TempDir()
	archive := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(archive, bundletest.Invalid(t), 0644))

	_, err := execute(t, "upload", archive, "--web-root", webDir)
	require.Error(t, err)

	entries, err := os.ReadDir(webDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
