package plugin

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egoavara/mapstore-plugins/internal/bundle/bundletest"
	"github.com/egoavara/mapstore-plugins/internal/registry"
	"github.com/egoavara/mapstore-plugins/internal/webctx"
)

func TestList(t *testing.T) {
	u, _ := newTestUploader(t, "dist/extensions/")

	items, err := u.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items, "built-in plugins are not listed")

	_, err = u.Upload(context.Background(), bytes.NewReader(bundletest.Plugin(t, "Zeta", "zeta.js")))
	require.NoError(t, err)
	_, err = u.Upload(context.Background(), bytes.NewReader(bundletest.Sample(t)))
	require.NoError(t, err)

	items, err = u.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "My", items[0].Name)
	assert.Equal(t, "MyPlugin", items[0].Key)
	assert.Equal(t, []string{"Toolbar"}, items[0].Dependencies)
	assert.Equal(t, "dist/extensions/My/myplugin.js", items[0].Extension.Bundle)
	assert.Equal(t, int64(len(bundletest.SampleBundle)), items[0].BundleSize)
	assert.Equal(t, "Zeta", items[1].Name)

	got, err := u.Get(context.Background(), "Zeta")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ZetaPlugin", got.Key)

	missing, err := u.Get(context.Background(), "Nope")
	require.ErrorIs(t, err, ErrNotInstalled)
	assert.Nil(t, missing)

	_, err = u.Get(context.Background(), "Map")
	require.ErrorIs(t, err, ErrNotInstalled, "built-in plugins are not uploaded extensions")
}

func TestUninstall(t *testing.T) {
	u, fs := newTestUploader(t, "dist/extensions/")

	_, err := u.Upload(context.Background(), bytes.NewReader(bundletest.Sample(t)))
	require.NoError(t, err)
	_, err = u.Upload(context.Background(), bytes.NewReader(bundletest.Plugin(t, "Other", "other.js")))
	require.NoError(t, err)

	require.NoError(t, u.Uninstall(context.Background(), "My"))

	assert.Equal(t, `{"OtherPlugin":{"bundle":"dist/extensions/Other/other.js"}}`,
		readFile(t, fs, filepath.Join(configDir, registry.ExtensionsFile)))

	cfg, err := registry.NewStore(fs).LoadPluginsConfig(filepath.Join(configDir, registry.PluginsConfigFile))
	require.NoError(t, err)
	_, found := cfg.Find("My")
	assert.False(t, found)
	_, found = cfg.Find("Map")
	assert.True(t, found)

	exists, err := afero.DirExists(fs, distDir+"/My")
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = afero.Exists(fs, distDir+"/Other/other.js")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUninstall_NotInstalled(t *testing.T) {
	u, fs := newTestUploader(t, "dist/extensions/")
	before := readFile(t, fs, filepath.Join(configDir, registry.PluginsConfigFile))

	err := u.Uninstall(context.Background(), "Nope")
	require.ErrorIs(t, err, ErrNotInstalled)

	err = u.Uninstall(context.Background(), "Map")
	require.ErrorIs(t, err, ErrNotInstalled, "built-in plugins cannot be uninstalled")

	assert.Equal(t, before, readFile(t, fs, filepath.Join(configDir, registry.PluginsConfigFile)))
}

func TestUninstall_AfterBundlesPathChange(t *testing.T) {
	fs := afero.NewMemMapFs()
	u := NewUploader(nil, WithFs(fs))
	u.SetContext(webctx.NewDirResolver("/web"))

	_, err := u.Upload(context.Background(), bytes.NewReader(bundletest.Sample(t)))
	require.NoError(t, err)

	u.SetBundlesPath("custom")
	require.NoError(t, u.Uninstall(context.Background(), "My"))

	exists, err := afero.DirExists(fs, "/web/dist/extensions/My")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReadDocument(t *testing.T) {
	u, _ := newTestUploader(t, "dist/extensions/")
	_, err := u.Upload(context.Background(), bytes.NewReader(bundletest.Sample(t)))
	require.NoError(t, err)

	data, err := u.ReadDocument(registry.ExtensionsFile)
	require.NoError(t, err)
	assert.JSONEq(t, `{"MyPlugin":{"bundle":"dist/extensions/My/myplugin.js"}}`, string(data))

	data, err = u.ReadDocument(registry.PluginsConfigFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"My"`)

	_, err = u.ReadDocument("localConfig.json")
	require.ErrorIs(t, err, ErrUnknownDocument)
}

func TestPlugins(t *testing.T) {
	u, _ := newTestUploader(t, "dist/extensions/")
	_, err := u.Upload(context.Background(), bytes.NewReader(bundletest.Sample(t)))
	require.NoError(t, err)

	entries, err := u.Plugins(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Map", entries[0].Name())
	assert.Equal(t, "My", entries[2].Name())
	assert.True(t, entries[2].IsExtension())
}
