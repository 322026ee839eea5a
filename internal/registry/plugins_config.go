package registry

import (
	"bytes"
	"encoding/json"
)

// PluginsConfigFile is the plugin metadata registry consumed by the web client
const PluginsConfigFile = "pluginsConfig.json"

// PluginEntry is one plugin declaration; unknown keys are kept as-is
type PluginEntry map[string]any

// Name returns the plugin name
func (p PluginEntry) Name() string {
	name, _ := p["name"].(string)
	return name
}

// IsExtension reports whether the plugin was installed from an uploaded bundle
func (p PluginEntry) IsExtension() bool {
	ext, _ := p["extension"].(bool)
	return ext
}

// Dependencies returns the declared dependencies, never nil
func (p PluginEntry) Dependencies() []string {
	deps := []string{}
	list, _ := p["dependencies"].([]any)
	for _, d := range list {
		if s, ok := d.(string); ok {
			deps = append(deps, s)
		}
	}
	return deps
}

// PluginsConfig is pluginsConfig.json: either {"plugins":[...], ...} or a bare array.
// Entries that are not replaced are written back exactly as they were read.
type PluginsConfig struct {
	slots   []pluginSlot
	rest    map[string]json.RawMessage
	isArray bool
}

type pluginSlot struct {
	entry PluginEntry
	raw   json.RawMessage // nil once the entry is replaced
}

// NewPluginsConfig returns an empty object-shaped config
func NewPluginsConfig() *PluginsConfig {
	return &PluginsConfig{}
}

// Plugins returns the declared entries in file order
func (c *PluginsConfig) Plugins() []PluginEntry {
	out := make([]PluginEntry, 0, len(c.slots))
	for _, s := range c.slots {
		out = append(out, s.entry)
	}
	return out
}

// UnmarshalJSON accepts both the object and the legacy array layout
func (c *PluginsConfig) UnmarshalJSON(data []byte) error {
	c.slots = nil
	c.rest = nil
	c.isArray = false

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		c.isArray = true
		return c.readPlugins(trimmed)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	if plugins, ok := raw["plugins"]; ok {
		if err := c.readPlugins(plugins); err != nil {
			return err
		}
		delete(raw, "plugins")
	}
	c.rest = raw
	return nil
}

func (c *PluginsConfig) readPlugins(data []byte) error {
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	for _, raw := range list {
		// non-object entries have no name and are carried through untouched
		var entry PluginEntry
		if err := decodeJSON(raw, &entry); err != nil {
			entry = nil
		}
		c.slots = append(c.slots, pluginSlot{entry: entry, raw: raw})
	}
	return nil
}

// MarshalJSON writes the config back in the layout it was read in
func (c PluginsConfig) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, s := range c.slots {
		if i > 0 {
			buf.WriteByte(',')
		}
		data := []byte(s.raw)
		if data == nil {
			var err error
			if data, err = Encode(s.entry); err != nil {
				return nil, err
			}
		}
		buf.Write(data)
	}
	buf.WriteByte(']')
	plugins := json.RawMessage(buf.Bytes())

	if c.isArray {
		return plugins, nil
	}

	out := make(map[string]json.RawMessage, len(c.rest)+1)
	for k, v := range c.rest {
		out[k] = v
	}
	out["plugins"] = plugins
	return Encode(out)
}

// Find returns the entry named name
func (c *PluginsConfig) Find(name string) (PluginEntry, bool) {
	for _, s := range c.slots {
		if s.entry.Name() == name {
			return s.entry, true
		}
	}
	return nil, false
}

// Upsert replaces the entry with the same name, or appends it
func (c *PluginsConfig) Upsert(entry PluginEntry) {
	name := entry.Name()
	for i, s := range c.slots {
		if name != "" && s.entry.Name() == name {
			c.slots[i] = pluginSlot{entry: entry}
			return
		}
	}
	c.slots = append(c.slots, pluginSlot{entry: entry})
}

// Remove drops the extension entry named name.
// Built-in plugins (without the extension flag) are never removed.
func (c *PluginsConfig) Remove(name string) bool {
	for i, s := range c.slots {
		if s.entry.Name() == name && s.entry.IsExtension() {
			c.slots = append(c.slots[:i], c.slots[i+1:]...)
			return true
		}
	}
	return false
}

// Extensions returns the entries flagged as uploaded extensions
func (c *PluginsConfig) Extensions() []PluginEntry {
	var out []PluginEntry
	for _, s := range c.slots {
		if s.entry.IsExtension() {
			out = append(out, s.entry)
		}
	}
	return out
}

// LoadPluginsConfig reads pluginsConfig.json; a missing file is an empty config
func (s *Store) LoadPluginsConfig(path string) (*PluginsConfig, error) {
	cfg := NewPluginsConfig()
	if _, err := s.ReadJSON(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SavePluginsConfig writes pluginsConfig.json
func (s *Store) SavePluginsConfig(path string, cfg *PluginsConfig) error {
	return s.WriteJSON(path, cfg)
}
