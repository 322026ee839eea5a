package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
)

const (
	// DescriptorFile is the plugin descriptor expected at the plugin root
	DescriptorFile = "index.json"
	// TranslationsDir holds the plugin's locale files
	TranslationsDir = "translations"
	// AssetsDir holds static assets loaded by the bundle
	AssetsDir = "assets"

	// maxDescriptorSize caps how much of index.json is read
	maxDescriptorSize = 1 << 20
)

// Descriptor is the index.json structure shipped inside a plugin archive
type Descriptor struct {
	Plugins []map[string]any `json:"plugins"`
}

// Bundle is a validated plugin archive
type Bundle struct {
	Name            string
	Dependencies    []string
	Descriptor      map[string]any // first entry of index.json "plugins"
	BundleFile      string         // file name of the primary JS bundle
	Files           []File         // regular files under the plugin root
	HasTranslations bool
	HasAssets       bool
}

// File is a regular file of the bundle, addressed relative to the plugin root
type File struct {
	Path string
	zf   *zip.File
}

// Open opens the file content for reading
func (f File) Open() (io.ReadCloser, error) {
	return f.zf.Open()
}

// Mode returns the stored permission bits, falling back to 0644
func (f File) Mode() fs.FileMode {
	mode := f.zf.Mode().Perm()
	if mode == 0 {
		return 0644
	}
	return mode
}

// Size returns the uncompressed size
func (f File) Size() int64 {
	return int64(f.zf.UncompressedSize64)
}

// Inspect validates the archive layout and reads the plugin descriptor.
// Nothing is extracted: this only reads the central directory and index.json.
func (a *Archive) Inspect() (*Bundle, error) {
	names, err := a.Entries()
	if err != nil {
		return nil, err
	}

	root, ok := findPluginRoot(names)
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", ErrMissingBundle, DescriptorFile)
	}

	b := &Bundle{}
	var descriptor *zip.File

	for i, f := range a.reader.File {
		name := names[i]
		if name == "" || strings.HasSuffix(name, "/") || !strings.HasPrefix(name, root) {
			continue
		}
		rel := strings.TrimPrefix(name, root)
		if rel == "" || isJunk(rel) {
			continue
		}

		b.Files = append(b.Files, File{Path: rel, zf: f})

		switch {
		case rel == DescriptorFile:
			descriptor = f
		case b.BundleFile == "" && !strings.Contains(rel, "/") && strings.EqualFold(path.Ext(rel), ".js"):
			b.BundleFile = rel
		case strings.HasPrefix(rel, TranslationsDir+"/"):
			b.HasTranslations = true
		case strings.HasPrefix(rel, AssetsDir+"/"):
			b.HasAssets = true
		}
	}

	if descriptor == nil || b.BundleFile == "" {
		return nil, ErrMissingBundle
	}

	if err := b.readDescriptor(descriptor); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *Bundle) readDescriptor(f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: failed to open %s: %v", ErrInvalidArchive, DescriptorFile, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxDescriptorSize))
	if err != nil {
		return fmt.Errorf("%w: failed to read %s: %v", ErrInvalidArchive, DescriptorFile, err)
	}

	var desc Descriptor
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&desc); err != nil {
		return fmt.Errorf("%w: failed to parse %s: %v", ErrMissingBundle, DescriptorFile, err)
	}
	if len(desc.Plugins) == 0 {
		return fmt.Errorf("%w: %s declares no plugins", ErrMissingBundle, DescriptorFile)
	}

	entry := desc.Plugins[0]
	name, _ := entry["name"].(string)
	if !validPluginName(name) {
		return fmt.Errorf("%w: invalid plugin name %q", ErrMissingBundle, name)
	}

	b.Name = name
	b.Descriptor = entry
	b.Dependencies = dependencies(entry)
	return nil
}

// dependencies extracts the string dependencies of a plugin entry, never nil
func dependencies(entry map[string]any) []string {
	deps := []string{}
	list, _ := entry["dependencies"].([]any)
	for _, d := range list {
		if s, ok := d.(string); ok {
			deps = append(deps, s)
		}
	}
	return deps
}

// findPluginRoot returns the folder holding index.json: the archive root,
// or a single top-level folder wrapping the whole plugin.
func findPluginRoot(names []string) (string, bool) {
	nested := ""
	for _, name := range names {
		if name == DescriptorFile {
			return "", true
		}
		dir, file := path.Split(name)
		if file == DescriptorFile && strings.Count(dir, "/") == 1 && !isJunk(dir) && nested == "" {
			nested = dir
		}
	}
	return nested, nested != ""
}

// isJunk reports archiver metadata that never belongs to a plugin
func isJunk(rel string) bool {
	return strings.HasPrefix(rel, "__MACOSX/") || path.Base(rel) == ".DS_Store"
}

func validPluginName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\:`)
}
