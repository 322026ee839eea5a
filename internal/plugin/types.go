package plugin

import (
	"errors"

	"github.com/egoavara/mapstore-plugins/internal/registry"
)

// DefaultBundlesPath is where extracted bundles live when no override is configured
const DefaultBundlesPath = "dist/extensions"

var (
	// ErrNotInstalled is returned when looking up or uninstalling a plugin that was never uploaded
	ErrNotInstalled = errors.New("plugin is not installed as an extension")
	// ErrUnknownDocument is returned when reading a document other than the two registries
	ErrUnknownDocument = errors.New("unknown configuration document")
)

// Summary is the response returned after a successful upload
type Summary struct {
	Name         string   `json:"name"`
	Dependencies []string `json:"dependencies"`
	Extension    bool     `json:"extension"`
}

// Installed describes an uploaded plugin as currently registered
type Installed struct {
	Name         string             `json:"name"`
	Key          string             `json:"key"`
	Dependencies []string           `json:"dependencies"`
	Extension    registry.Extension `json:"extension"`
	BundleSize   int64              `json:"bundleSize"`
}
