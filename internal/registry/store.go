package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// ErrConfigIO is returned when a registry document cannot be read, parsed or written
var ErrConfigIO = errors.New("plugin configuration I/O error")

// Store reads and writes JSON documents on a filesystem.
// Writes replace the target atomically through a temp file and rename.
type Store struct {
	fs afero.Fs
}

// NewStore creates a store backed by fs
func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// ReadJSON decodes the document at path into v.
// It reports found=false, leaving v untouched, when the file does not exist or is empty.
func (s *Store) ReadJSON(path string, v any) (found bool, err error) {
	f, err := s.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: open %s: %v", ErrConfigIO, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("%w: close %s: %v", ErrConfigIO, path, cerr))
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %v", ErrConfigIO, path, err)
	}
	if len(data) == 0 {
		return false, nil
	}

	if err := decodeJSON(data, v); err != nil {
		return false, fmt.Errorf("%w: parse %s: %v", ErrConfigIO, path, err)
	}
	return true, nil
}

// WriteJSON encodes v compactly and replaces the document at path
func (s *Store) WriteJSON(path string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrConfigIO, path, err)
	}
	return s.WriteFile(path, data)
}

// Encode marshals v compactly without escaping <, > and &
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// decodeJSON unmarshals data into v, keeping numbers as json.Number
func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after top-level value")
	}
	return nil
}

// WriteFile atomically replaces path with data, creating parent directories
func (s *Store) WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrConfigIO, dir, err)
	}

	tmp := path + ".tmp-" + uuid.NewString()
	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrConfigIO, tmp, err)
	}
	defer func() {
		if err != nil {
			_ = s.fs.Remove(tmp)
		}
	}()

	_, werr := f.Write(data)
	err = multierr.Combine(werr, f.Close())
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrConfigIO, path, err)
	}

	if err = s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("%w: replace %s: %v", ErrConfigIO, path, err)
	}
	return nil
}

// Exists reports whether path exists
func (s *Store) Exists(path string) (bool, error) {
	return afero.Exists(s.fs, path)
}
