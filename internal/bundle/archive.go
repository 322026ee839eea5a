package bundle

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	// ErrInvalidArchive is returned when the upload is not a readable ZIP container
	ErrInvalidArchive = errors.New("invalid plugin archive")
	// ErrMissingBundle is returned when the archive lacks a usable descriptor or bundle file
	ErrMissingBundle = errors.New("invalid bundle: index.json or bundle file missing")
	// ErrTooLarge is returned alongside ErrInvalidArchive when the upload exceeds the size limit
	ErrTooLarge = errors.New("plugin archive exceeds size limit")
)

// Archive is an uploaded ZIP held in memory
type Archive struct {
	reader *zip.Reader
	size   int64
}

// Read consumes r and opens it as a ZIP archive.
// limit bounds the number of bytes accepted; 0 means unlimited.
func Read(r io.Reader, limit int64) (*Archive, error) {
	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read upload: %v", ErrInvalidArchive, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArchive, ErrTooLarge)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	return &Archive{reader: zr, size: int64(len(data))}, nil
}

// Size returns the archive size in bytes
func (a *Archive) Size() int64 {
	return a.size
}

// Entries returns the normalized names of all archive entries, in archive order
func (a *Archive) Entries() ([]string, error) {
	names := make([]string, 0, len(a.reader.File))
	for _, f := range a.reader.File {
		name, err := entryName(f.Name)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// entryName normalizes a ZIP entry name and rejects entries that could escape
// the extraction directory.
func entryName(raw string) (string, error) {
	name := strings.ReplaceAll(raw, "\\", "/")
	if strings.HasPrefix(name, "/") || hasDriveLetter(name) {
		return "", fmt.Errorf("%w: illegal absolute entry %q", ErrInvalidArchive, raw)
	}

	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: illegal entry path %q", ErrInvalidArchive, raw)
		}
	}

	isDir := strings.HasSuffix(name, "/")
	name = path.Clean(name)
	if name == "." {
		return "", nil
	}
	if isDir {
		name += "/"
	}
	return name, nil
}

// hasDriveLetter reports a Windows volume prefix such as "C:" or "C:/"; name
// has backslashes already converted.
func hasDriveLetter(name string) bool {
	if len(name) < 2 || name[1] != ':' {
		return false
	}
	c := name[0]
	if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
		return false
	}
	return len(name) == 2 || name[2] == '/'
}
