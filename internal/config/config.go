package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xhit/go-str2duration/v2"
)

const (
	// DefaultListen is the address `serve` binds to
	DefaultListen = ":8080"
	// DefaultMaxUploadSize bounds uploaded archives
	DefaultMaxUploadSize = "32 MiB"
	// DefaultShutdownTimeout bounds graceful shutdown of `serve`
	DefaultShutdownTimeout = "10s"
)

// ServerConfig contains settings for the `serve` command
type ServerConfig struct {
	Listen          string `json:"listen"`
	MaxUploadSize   string `json:"maxUploadSize"`   // humanized, e.g. "32 MiB"; "0" disables the bound
	ShutdownTimeout string `json:"shutdownTimeout"` // e.g. "10s", "1m30s"
}

// MaxUploadBytes parses MaxUploadSize
func (s ServerConfig) MaxUploadBytes() (int64, error) {
	return ParseSize(s.MaxUploadSize)
}

// ShutdownDuration parses ShutdownTimeout
func (s ServerConfig) ShutdownDuration() (time.Duration, error) {
	return ParseDuration(s.ShutdownTimeout)
}

// Config represents the main configuration file structure
type Config struct {
	Locale      string       `json:"locale"`      // "auto" or ISO format (e.g., "ko-KR", "en-US")
	WebRoot     string       `json:"webRoot"`     // MapStore web application directory
	BundlesPath string       `json:"bundlesPath"` // empty means dist/extensions
	Server      ServerConfig `json:"server"`
}

var (
	cfg     *Config
	cfgOnce sync.Once
	cfgMu   sync.RWMutex
)

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Locale:  "auto",
		WebRoot: ".",
		Server: ServerConfig{
			Listen:          DefaultListen,
			MaxUploadSize:   DefaultMaxUploadSize,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
	}
}

// Load loads the configuration from file
func Load() (*Config, error) {
	cfgMu.RLock()
	defer cfgMu.RUnlock()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, err
	}

	config := NewConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigPath(), err)
	}

	if config.Locale == "" {
		config.Locale = "auto"
	}
	if config.WebRoot == "" {
		config.WebRoot = "."
	}
	if config.Server.Listen == "" {
		config.Server.Listen = DefaultListen
	}
	if config.Server.MaxUploadSize == "" {
		config.Server.MaxUploadSize = DefaultMaxUploadSize
	}
	if config.Server.ShutdownTimeout == "" {
		config.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	return config, nil
}

// Save saves the configuration to file
func Save(config *Config) error {
	cfgMu.Lock()
	defer cfgMu.Unlock()

	if err := EnsureDir(Dir()); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}

// Get returns the current configuration (singleton)
func Get() *Config {
	cfgOnce.Do(func() {
		var err error
		cfg, err = Load()
		if err != nil {
			cfg = NewConfig()
		}
	})
	return cfg
}

// GetLocale returns the configured locale
func GetLocale() string {
	return Get().Locale
}

// setters maps each settable key to its validation and assignment
var setters = map[string]func(c *Config, value string) error{
	"locale": func(c *Config, value string) error {
		c.Locale = value
		return nil
	},
	"webRoot": func(c *Config, value string) error {
		c.WebRoot = value
		return nil
	},
	"bundlesPath": func(c *Config, value string) error {
		c.BundlesPath = value
		return nil
	},
	"server.listen": func(c *Config, value string) error {
		c.Server.Listen = value
		return nil
	},
	"server.maxUploadSize": func(c *Config, value string) error {
		if _, err := ParseSize(value); err != nil {
			return err
		}
		c.Server.MaxUploadSize = value
		return nil
	},
	"server.shutdownTimeout": func(c *Config, value string) error {
		if _, err := ParseDuration(value); err != nil {
			return err
		}
		c.Server.ShutdownTimeout = value
		return nil
	},
}

// Keys returns the settable configuration keys
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set validates and assigns key on c without saving
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	return set(c, value)
}

// Value returns the current value of key
func (c *Config) Value(key string) (string, error) {
	switch key {
	case "locale":
		return c.Locale, nil
	case "webRoot":
		return c.WebRoot, nil
	case "bundlesPath":
		return c.BundlesPath, nil
	case "server.listen":
		return c.Server.Listen, nil
	case "server.maxUploadSize":
		return c.Server.MaxUploadSize, nil
	case "server.shutdownTimeout":
		return c.Server.ShutdownTimeout, nil
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

// SetValue sets key on the singleton configuration and saves
func SetValue(key, value string) error {
	config := Get()
	if err := config.Set(key, value); err != nil {
		return err
	}
	return Save(config)
}

// ParseSize parses a humanized byte size such as "32 MiB" or "10MB"
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int64(n), nil
}

// ParseDuration parses durations such as "10s", "1m30s" or "1d"
func ParseDuration(s string) (time.Duration, error) {
	d, err := str2duration.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
