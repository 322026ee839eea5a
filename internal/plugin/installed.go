package plugin

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/egoavara/mapstore-plugins/internal/registry"
)

// List returns the uploaded plugins currently registered in pluginsConfig.json
func (u *Uploader) List(ctx context.Context) ([]Installed, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	extensions, pluginsConfig, _, _, err := u.loadDocuments()
	if err != nil {
		return nil, err
	}

	var result []Installed
	for _, entry := range pluginsConfig.Extensions() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		key := registry.ExtensionKey(entry.Name())
		ext, _ := extensions.Get(key)
		item := Installed{
			Name:         entry.Name(),
			Key:          key,
			Dependencies: entry.Dependencies(),
			Extension:    ext,
		}

		if ext.Bundle != "" {
			if p, err := u.resolver.ResolvePath(ext.Bundle); err == nil {
				if info, err := u.fs.Stat(p); err == nil {
					item.BundleSize = info.Size()
				}
			}
		}

		result = append(result, item)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// Get returns a single uploaded plugin, or ErrNotInstalled
func (u *Uploader) Get(ctx context.Context, name string) (*Installed, error) {
	items, err := u.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Name == name {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotInstalled, name)
}

// Plugins returns every entry of pluginsConfig.json, built-in plugins included
func (u *Uploader) Plugins(ctx context.Context) ([]registry.PluginEntry, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, pluginsConfig, _, _, err := u.loadDocuments()
	if err != nil {
		return nil, err
	}
	return pluginsConfig.Plugins(), nil
}

// Uninstall removes an uploaded plugin from both registries and deletes its files.
// Built-in plugins are left alone and reported as ErrNotInstalled.
func (u *Uploader) Uninstall(ctx context.Context, name string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	extensions, pluginsConfig, extPath, cfgPath, err := u.loadDocuments()
	if err != nil {
		return err
	}

	key := registry.ExtensionKey(name)
	ext, inExtensions := extensions.Get(key)
	inConfig := pluginsConfig.Remove(name)
	if !inConfig && !inExtensions {
		return fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}

	// The bundle may have been uploaded under a different bundles path
	pluginPath := path.Join(u.bundlesPathLocked(), name)
	if dir := path.Dir(ext.Bundle); ext.Bundle != "" && path.Base(dir) == name {
		pluginPath = dir
	}
	dir, err := u.resolve(pluginPath + "/")
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	extensions.Remove(key)
	if err := u.store.SaveExtensions(extPath, extensions); err != nil {
		return err
	}
	if err := u.store.SavePluginsConfig(cfgPath, pluginsConfig); err != nil {
		return err
	}

	if err := u.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: failed to remove %s: %v", ErrExtract, dir, err)
	}

	u.logger.Info().Str("plugin", name).Str("dir", dir).Msg("plugin uninstalled")
	return nil
}

// loadDocuments reads extensions.json and pluginsConfig.json; callers hold u.mu
func (u *Uploader) loadDocuments() (registry.Extensions, *registry.PluginsConfig, string, string, error) {
	if u.resolver == nil {
		return nil, nil, "", "", fmt.Errorf("no path resolver configured")
	}

	extPath, err := u.resolve(registry.ExtensionsFile)
	if err != nil {
		return nil, nil, "", "", err
	}
	cfgPath, err := u.resolve(registry.PluginsConfigFile)
	if err != nil {
		return nil, nil, "", "", err
	}

	extensions, err := u.store.LoadExtensions(extPath)
	if err != nil {
		return nil, nil, "", "", err
	}
	pluginsConfig, err := u.store.LoadPluginsConfig(cfgPath)
	if err != nil {
		return nil, nil, "", "", err
	}

	return extensions, pluginsConfig, extPath, cfgPath, nil
}

// ReadDocument returns the raw content of one of the two registry documents
func (u *Uploader) ReadDocument(name string) ([]byte, error) {
	if name != registry.ExtensionsFile && name != registry.PluginsConfigFile {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, name)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.resolver == nil {
		return nil, fmt.Errorf("no path resolver configured")
	}
	p, err := u.resolve(name)
	if err != nil {
		return nil, err
	}

	switch name {
	case registry.ExtensionsFile:
		ext, err := u.store.LoadExtensions(p)
		if err != nil {
			return nil, err
		}
		return registry.Encode(ext)
	default:
		cfg, err := u.store.LoadPluginsConfig(p)
		if err != nil {
			return nil, err
		}
		return registry.Encode(cfg)
	}
}
