// Package bundletest builds plugin archives for tests.
package bundletest

import (
	"archive/zip"
	"bytes"
	"testing"
)

// SampleDescriptor is the index.json of the sample "My" plugin
const SampleDescriptor = `{"plugins":[{"name":"My","dependencies":["Toolbar"]}]}`

// SampleBundle is the JS content of the sample plugin
const SampleBundle = "window.MyPlugin = {};"

// Zip builds a ZIP archive from name/content pairs, keeping their order.
// Names ending in "/" are stored as directory entries.
func Zip(t testing.TB, pairs ...string) []byte {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("bundletest.Zip: odd number of arguments")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := 0; i < len(pairs); i += 2 {
		w, err := zw.Create(pairs[i])
		if err != nil {
			t.Fatalf("bundletest.Zip: create %s: %v", pairs[i], err)
		}
		if _, err := w.Write([]byte(pairs[i+1])); err != nil {
			t.Fatalf("bundletest.Zip: write %s: %v", pairs[i], err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("bundletest.Zip: close: %v", err)
	}
	return buf.Bytes()
}

// Sample returns the "My" plugin archive: index.json plus myplugin.js
func Sample(t testing.TB) []byte {
	return Zip(t,
		"index.json", SampleDescriptor,
		"myplugin.js", SampleBundle,
	)
}

// Plugin returns an archive for a dependency-free plugin named name whose
// bundle is bundleFile; extra adds further name/content pairs
func Plugin(t testing.TB, name, bundleFile string, extra ...string) []byte {
	pairs := []string{
		"index.json", `{"plugins":[{"name":"` + name + `","dependencies":[]}]}`,
		bundleFile, "console.log('" + name + "');",
	}
	return Zip(t, append(pairs, extra...)...)
}

// Invalid returns an archive without descriptor or bundle
func Invalid(t testing.TB) []byte {
	return Zip(t, "README.md", "not a plugin")
}
