package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLocales = fstest.MapFS{
	"locales/en-us.json": {Data: []byte(`{
		"Hello": "Hello {{.Name}}",
		"Plugins": {"one": "{{.Count}} plugin", "other": "{{.Count}} plugins"}
	}`)},
	"locales/ko-kr.json": {Data: []byte(`{
		"Hello": "안녕하세요 {{.Name}}",
		"Plugins": {"other": "플러그인 {{.Count}}개"}
	}`)},
}

func TestT(t *testing.T) {
	require.NoError(t, Init(testLocales, "en-US"))

	assert.Equal(t, "Hello My", T("Hello", map[string]any{"Name": "My"}))
	assert.Equal(t, "1 plugin", T("Plugins", map[string]any{"Count": 1}, 1))
	assert.Equal(t, "3 plugins", T("Plugins", map[string]any{"Count": 3}, 3))
	assert.Equal(t, "Missing", T("Missing", nil))

	SetLocale("ko-KR")
	assert.Equal(t, "안녕하세요 My", T("Hello", map[string]any{"Name": "My"}))
	assert.Equal(t, "플러그인 3개", T("Plugins", map[string]any{"Count": 3}, 3))
}

func TestInit_BadFile(t *testing.T) {
	err := Init(fstest.MapFS{"locales/en-us.json": {Data: []byte(`{`)}}, "en-US")
	require.Error(t, err)
}
