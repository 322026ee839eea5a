package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egoavara/mapstore-plugins/internal/bundle/bundletest"
	"github.com/egoavara/mapstore-plugins/internal/plugin"
	"github.com/egoavara/mapstore-plugins/internal/registry"
	"github.com/egoavara/mapstore-plugins/internal/webctx"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, opts ...plugin.Option) (*Server, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/web/"+registry.PluginsConfigFile,
		[]byte(`{"plugins":[{"name":"Map"},{"name":"Toolbar"}]}`), 0644))

	opts = append([]plugin.Option{plugin.WithFs(fs)}, opts...)
	u := plugin.NewUploader(webctx.NewDirResolver("/web"), opts...)
	return New(u, zerolog.Nop()), fs
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestUpload_RawBody(t *testing.T) {
	s, fs := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/rest/config/uploadPlugin", bytes.NewReader(bundletest.Sample(t)))
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := do(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"name":"My","dependencies":["Toolbar"],"extension":true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	exists, err := afero.Exists(fs, "/web/dist/extensions/My/myplugin.js")
	require.NoError(t, err)
	assert.True(t, exists)
}

func multipartBody(t *testing.T, archive []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "my.zip")
	require.NoError(t, err)
	_, err = part.Write(archive)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestUpload_Multipart(t *testing.T) {
	s, _ := newTestServer(t)

	body, contentType := multipartBody(t, bundletest.Sample(t))
	req := httptest.NewRequest(http.MethodPost, "/rest/config/uploadPlugin", body)
	req.Header.Set("Content-Type", contentType)
	rec := do(s, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"name":"My","dependencies":["Toolbar"],"extension":true}`, rec.Body.String())
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      func(t *testing.T) []byte
		multipart bool
		opts      []plugin.Option
		status    int
	}{
		{
			name:   "not a zip",
			body:   func(t *testing.T) []byte { return bundletest.Invalid(t) },
			status: http.StatusBadRequest,
		},
		{
			name: "no bundle",
			body: func(t *testing.T) []byte {
				return bundletest.Zip(t, "index.json", bundletest.SampleDescriptor)
			},
			status: http.StatusBadRequest,
		},
		{
			name:   "too large",
			body:   func(t *testing.T) []byte { return bundletest.Sample(t) },
			opts:   []plugin.Option{plugin.WithMaxUploadSize(16)},
			status: http.StatusRequestEntityTooLarge,
		},
		{
			name:      "too large multipart archive",
			body:      func(t *testing.T) []byte { return bundletest.Sample(t) },
			multipart: true,
			opts:      []plugin.Option{plugin.WithMaxUploadSize(16)},
			status:    http.StatusRequestEntityTooLarge,
		},
		{
			name:      "multipart body over the limit",
			body:      func(t *testing.T) []byte { return bytes.Repeat([]byte("x"), 256<<10) },
			multipart: true,
			opts:      []plugin.Option{plugin.WithMaxUploadSize(16)},
			status:    http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, tt.opts...)

			body, contentType := bytes.NewBuffer(tt.body(t)), "application/zip"
			if tt.multipart {
				body, contentType = multipartBody(t, body.Bytes())
			}
			req := httptest.NewRequest(http.MethodPost, "/rest/config/uploadPlugin", body)
			req.Header.Set("Content-Type", contentType)
			rec := do(s, req)

			assert.Equal(t, tt.status, rec.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, false, resp["success"])
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestUpload_MissingFormField(t *testing.T) {
	s, _ := newTestServer(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("other", "value"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/rest/config/uploadPlugin", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := do(s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUninstall(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodDelete, "/rest/config/uninstallPlugin/My", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodPost, "/rest/config/uploadPlugin", bytes.NewReader(bundletest.Sample(t))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(s, httptest.NewRequest(http.MethodDelete, "/rest/config/uninstallPlugin/My", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"name":"My","uninstalled":true}`, rec.Body.String())
}

func TestLoadAndList(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/rest/config/plugins", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(s, httptest.NewRequest(http.MethodPost, "/rest/config/uploadPlugin", bytes.NewReader(bundletest.Sample(t))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(s, httptest.NewRequest(http.MethodGet, "/rest/config/load/extensions.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"MyPlugin":{"bundle":"dist/extensions/My/myplugin.js"}}`, rec.Body.String())

	rec = do(s, httptest.NewRequest(http.MethodGet, "/rest/config/load/localConfig.json", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/rest/config/plugins", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var items []plugin.Installed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "My", items[0].Name)
	assert.Equal(t, []string{"Toolbar"}, items[0].Dependencies)
}

func TestRequestID_Propagated(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/rest/config/plugins", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := do(s, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t)

	do(s, httptest.NewRequest(http.MethodPost, "/rest/config/uploadPlugin", bytes.NewReader(bundletest.Sample(t))))
	do(s, httptest.NewRequest(http.MethodPost, "/rest/config/uploadPlugin", bytes.NewReader(bundletest.Invalid(t))))

	rec := do(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `mapstore_plugins_uploads_total{result="success"} 1`)
	assert.Contains(t, body, `mapstore_plugins_uploads_total{result="invalid"} 1`)
	assert.Contains(t, body, "mapstore_plugins_upload_duration_seconds_count 2")
}

func TestPprof(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	fs := afero.NewMemMapFs()
	u := plugin.NewUploader(webctx.NewDirResolver("/web"), plugin.WithFs(fs))
	s = New(u, zerolog.Nop(), WithPprof())
	rec = do(s, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
