package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/egoavara/mapstore-plugins/internal/bundle"
	"github.com/egoavara/mapstore-plugins/internal/registry"
	"github.com/egoavara/mapstore-plugins/internal/webctx"
)

// ErrExtract is returned when bundle files cannot be written under the bundles path
var ErrExtract = errors.New("failed to extract plugin bundle")

// Uploader installs uploaded plugin archives into a MapStore web root and
// registers them in extensions.json and pluginsConfig.json.
//
// Upload and Uninstall are serialized per Uploader; separate processes writing
// the same web root are not coordinated.
type Uploader struct {
	mu sync.Mutex

	fs          afero.Fs
	store       *registry.Store
	resolver    webctx.PathResolver
	bundlesPath string
	maxSize     int64
	logger      zerolog.Logger
}

// Option configures an Uploader
type Option func(*Uploader)

// WithFs sets the filesystem used for extraction and registry files
func WithFs(fs afero.Fs) Option {
	return func(u *Uploader) {
		u.fs = fs
		u.store = registry.NewStore(fs)
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(u *Uploader) {
		u.logger = logger
	}
}

// WithMaxUploadSize bounds the archive size in bytes; 0 means unlimited
func WithMaxUploadSize(n int64) Option {
	return func(u *Uploader) {
		u.maxSize = n
	}
}

// MaxUploadSize returns the archive size bound in bytes; 0 means unlimited
func (u *Uploader) MaxUploadSize() int64 {
	return u.maxSize
}

// NewUploader creates an uploader resolving web paths through resolver
func NewUploader(resolver webctx.PathResolver, opts ...Option) *Uploader {
	fs := afero.NewOsFs()
	u := &Uploader{
		fs:       fs,
		store:    registry.NewStore(fs),
		resolver: resolver,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// SetBundlesPath overrides the logical directory bundles are extracted to.
// An empty path restores DefaultBundlesPath.
func (u *Uploader) SetBundlesPath(p string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.bundlesPath = p
}

// SetContext injects the host path resolution capability
func (u *Uploader) SetContext(resolver webctx.PathResolver) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.resolver = resolver
}

// BundlesPath returns the effective logical bundles directory
func (u *Uploader) BundlesPath() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.bundlesPathLocked()
}

func (u *Uploader) bundlesPathLocked() string {
	p := strings.Trim(strings.TrimSpace(u.bundlesPath), "/")
	if p == "" {
		return DefaultBundlesPath
	}
	return p
}

// Upload installs the plugin archive read from r and returns the JSON summary,
// e.g. {"name":"My","dependencies":["Toolbar"],"extension":true}.
func (u *Uploader) Upload(ctx context.Context, r io.Reader) (string, error) {
	summary, err := u.UploadSummary(ctx, r)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UploadSummary installs the plugin archive read from r.
// The archive is fully validated before anything is written.
func (u *Uploader) UploadSummary(ctx context.Context, r io.Reader) (*Summary, error) {
	archive, err := bundle.Read(r, u.maxSize)
	if err != nil {
		return nil, err
	}

	b, err := archive.Inspect()
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.resolver == nil {
		return nil, errors.New("no path resolver configured")
	}

	logger := u.logger.With().Str("plugin", b.Name).Logger()
	logger.Debug().
		Int64("size", archive.Size()).
		Int("files", len(b.Files)).
		Str("bundle", b.BundleFile).
		Msg("plugin archive validated")

	extPath, err := u.resolve(registry.ExtensionsFile)
	if err != nil {
		return nil, err
	}
	cfgPath, err := u.resolve(registry.PluginsConfigFile)
	if err != nil {
		return nil, err
	}

	// Both documents are read before extraction so a corrupt registry aborts
	// the upload without touching the bundles directory.
	extensions, err := u.store.LoadExtensions(extPath)
	if err != nil {
		return nil, err
	}
	pluginsConfig, err := u.store.LoadPluginsConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	pluginPath := path.Join(u.bundlesPathLocked(), b.Name)
	if err := u.extract(ctx, pluginPath, b); err != nil {
		return nil, err
	}

	ext := registry.Extension{Bundle: pluginPath + "/" + b.BundleFile}
	if b.HasTranslations {
		ext.Translations = pluginPath + "/" + bundle.TranslationsDir
	}
	if b.HasAssets {
		ext.Assets = pluginPath + "/" + bundle.AssetsDir
	}
	extensions.Upsert(registry.ExtensionKey(b.Name), ext)
	if err := u.store.SaveExtensions(extPath, extensions); err != nil {
		return nil, err
	}

	entry := make(registry.PluginEntry, len(b.Descriptor)+1)
	for k, v := range b.Descriptor {
		entry[k] = v
	}
	entry["extension"] = true
	pluginsConfig.Upsert(entry)
	if err := u.store.SavePluginsConfig(cfgPath, pluginsConfig); err != nil {
		return nil, err
	}

	logger.Info().Str("bundle", ext.Bundle).Msg("plugin registered")

	return &Summary{
		Name:         b.Name,
		Dependencies: b.Dependencies,
		Extension:    true,
	}, nil
}

func (u *Uploader) resolve(logical string) (string, error) {
	p, err := u.resolver.ResolvePath(logical)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", logical, err)
	}
	return p, nil
}

// extract replaces any previous extraction of the plugin with the bundle files
func (u *Uploader) extract(ctx context.Context, pluginPath string, b *bundle.Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := u.resolve(pluginPath + "/")
	if err != nil {
		return err
	}
	if err := u.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: failed to clear %s: %v", ErrExtract, dir, err)
	}
	if err := u.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", ErrExtract, dir, err)
	}

	safePrefix := filepath.Clean(dir) + string(os.PathSeparator)
	for _, f := range b.Files {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := u.resolve(pluginPath + "/" + f.Path)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(filepath.Clean(target), safePrefix) {
			return fmt.Errorf("%w: %s resolves outside %s", ErrExtract, f.Path, dir)
		}

		if err := u.writeFile(target, f); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrExtract, f.Path, err)
		}
	}

	return nil
}

func (u *Uploader) writeFile(target string, f bundle.File) (err error) {
	if err := u.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, rc.Close()) }()

	out, err := u.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, out.Close()) }()

	_, err = io.Copy(out, rc)
	return err
}
