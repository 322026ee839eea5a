package registry

import (
	"encoding/json"
	"sort"
)

// ExtensionsFile is the bundle-path registry consumed by the web client
const ExtensionsFile = "extensions.json"

// Extension is a single extensions.json entry
type Extension struct {
	Bundle       string `json:"bundle"`
	Translations string `json:"translations,omitempty"`
	Assets       string `json:"assets,omitempty"`
}

// Extensions maps an extension key (plugin name + "Plugin") to its entry.
// Entries are kept as read so fields this package does not know survive a rewrite.
type Extensions map[string]json.RawMessage

// ExtensionKey returns the extensions.json key for a plugin name
func ExtensionKey(pluginName string) string {
	return pluginName + "Plugin"
}

// Get decodes the entry for key. An entry that is not an object yields a zero
// Extension with ok=true.
func (e Extensions) Get(key string) (Extension, bool) {
	raw, ok := e[key]
	if !ok {
		return Extension{}, false
	}
	var ext Extension
	if err := json.Unmarshal(raw, &ext); err != nil {
		return Extension{}, true
	}
	return ext, true
}

// Upsert sets the entry for key, keeping every other key untouched
func (e Extensions) Upsert(key string, ext Extension) {
	// a struct of strings always encodes
	data, _ := Encode(ext)
	e[key] = data
}

// Remove deletes key and reports whether it was present
func (e Extensions) Remove(key string) bool {
	if _, ok := e[key]; !ok {
		return false
	}
	delete(e, key)
	return true
}

// Keys returns the registered keys in sorted order
func (e Extensions) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadExtensions reads extensions.json; a missing file is an empty registry
func (s *Store) LoadExtensions(path string) (Extensions, error) {
	ext := make(Extensions)
	if _, err := s.ReadJSON(path, &ext); err != nil {
		return nil, err
	}
	if ext == nil {
		ext = make(Extensions)
	}
	return ext, nil
}

// SaveExtensions writes extensions.json
func (s *Store) SaveExtensions(path string, ext Extensions) error {
	if ext == nil {
		ext = make(Extensions)
	}
	return s.WriteJSON(path, ext)
}
