package transport

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagepress/internal/common"
	"imagepress/internal/config"
	"imagepress/internal/container"
	"imagepress/internal/database"
	"imagepress/internal/testutil"
)

type testServer struct {
	*httptest.Server
	debugDir string
}

func newTestServer(t *testing.T, opts ...HandlerOption) *testServer {
	t.Helper()

	db, err := database.NewDatabase(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	c := container.New(config.DefaultConfig(), db.DB())
	debugDir := t.TempDir()
	opts = append([]HandlerOption{
		WithHistory(c.GetHistoryRepository()),
		WithDebugWriter(NewDebugWriter(debugDir, nil)),
	}, opts...)

	h := NewHandler(nil, c.GetSessionStore(), c.GetNormalizer(), c.GetStatisticsService(), opts...)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, debugDir: debugDir}
}

func (s *testServer) do(t *testing.T, method, path, contentType string, body []byte, headers ...string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp := srv.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubmitAndConvert_PDF(t *testing.T) {
	srv := newTestServer(t)

	for _, width := range []int{30, 60} {
		resp := srv.do(t, http.MethodPost, "/api/v1/sessions/alice/images", "image/png",
			testutil.PNG(t, testutil.Gradient(width, 20)))
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		submitted := decode[SubmitResponse](t, resp)
		assert.Equal(t, "PNG", submitted.Format)
		assert.Equal(t, width, submitted.Width)
	}

	status := decode[map[string]any](t, srv.do(t, http.MethodGet, "/api/v1/sessions/alice", "", nil))
	assert.Equal(t, float64(2), status["pending"])
	assert.Equal(t, "medium", status["level"])

	resp := srv.do(t, http.MethodPut, "/api/v1/sessions/alice/level", "application/json", []byte(`{"level":"low"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Low Quality (70%)", decode[LevelResponse](t, resp).Title)

	resp = srv.do(t, http.MethodPost, "/api/v1/sessions/alice/convert", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "2", resp.Header.Get("X-Image-Count"))
	assert.Equal(t, "low", resp.Header.Get("X-Compression-Level"))

	var pdf bytes.Buffer
	_, err := pdf.ReadFrom(resp.Body)
	require.NoError(t, err)
	pages := testutil.PageSizes(t, pdf.Bytes())
	require.Len(t, pages, 2)
	assert.InDelta(t, 30, pages[0][0], 0.01)
	assert.InDelta(t, 60, pages[1][0], 0.01)

	// The session is gone once converted
	resp = srv.do(t, http.MethodPost, "/api/v1/sessions/alice/convert", "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "no_pending_images", string(decode[ErrorResponse](t, resp).Error))

	// A debug copy was written with the documented name
	entries, err := os.ReadDir(srv.debugDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "user_alice_"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_2images.pdf"))

	history := decode[HistoryResponse](t, srv.do(t, http.MethodGet, "/api/v1/users/alice/history", "", nil))
	require.Len(t, history.Conversions, 1)
	assert.Equal(t, 2, history.Conversions[0].ImageCount)
	assert.Equal(t, "low", history.Conversions[0].Level)

	stats := decode[map[string]any](t, srv.do(t, http.MethodGet, "/api/v1/stats", "", nil))
	assert.Equal(t, float64(1), stats["conversions"])
}

func TestConvert_JSON(t *testing.T) {
	srv := newTestServer(t)

	raw := testutil.JPEG(t, testutil.Noise(48, 32, 3), 95)
	resp := srv.do(t, http.MethodPost, "/api/v1/sessions/bob/images", "application/octet-stream", raw)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/v1/sessions/bob/convert", "", nil, "Accept", "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[ConvertResponse](t, resp)
	assert.Equal(t, 1, body.ImageCount)
	assert.Equal(t, int64(len(raw)), body.OriginalTotalBytes)
	assert.Equal(t, int64(len(body.PDF)), body.FinalBytes)
	assert.Contains(t, body.Summary, "Image: JPEG 48x32")
	assert.True(t, bytes.HasPrefix(body.PDF, []byte("%PDF-")))
}

func TestSubmit_Multipart(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "photo.bmp")
	require.NoError(t, err)
	_, err = part.Write(testutil.BMP(t, testutil.Gradient(12, 9)))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp := srv.do(t, http.MethodPost, "/api/v1/sessions/carol/images", mw.FormDataContentType(), buf.Bytes())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	submitted := decode[SubmitResponse](t, resp)
	assert.Equal(t, "BMP", submitted.Format)
	assert.Equal(t, 1, submitted.Pending)
}

func TestErrors(t *testing.T) {
	srv := newTestServer(t, WithMaxImageBytes(1024))

	tests := []struct {
		name   string
		method string
		path   string
		body   []byte
		status int
		kind   string
	}{
		{name: "unsupported bytes", method: http.MethodPost, path: "/api/v1/sessions/dave/images", body: []byte("0123456789"), status: http.StatusUnsupportedMediaType, kind: "unsupported_format"},
		{name: "corrupt png", method: http.MethodPost, path: "/api/v1/sessions/dave/images", body: testutil.PNG(t, testutil.Noise(8, 8, 1))[:40], status: http.StatusUnprocessableEntity, kind: "corrupt_data"},
		{name: "too large", method: http.MethodPost, path: "/api/v1/sessions/dave/images", body: make([]byte, 2048), status: http.StatusRequestEntityTooLarge},
		{name: "empty body", method: http.MethodPost, path: "/api/v1/sessions/dave/images", body: nil, status: http.StatusBadRequest},
		{name: "unknown level", method: http.MethodPut, path: "/api/v1/sessions/dave/level", body: []byte(`{"level":"ultra"}`), status: http.StatusBadRequest, kind: "invalid_level"},
		{name: "nothing to convert", method: http.MethodPost, path: "/api/v1/sessions/dave/convert", status: http.StatusConflict, kind: "no_pending_images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, tt.method, tt.path, "", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			body := decode[ErrorResponse](t, resp)
			if tt.kind != "" {
				assert.Equal(t, tt.kind, string(body.Error))
			}
			assert.NotEmpty(t, body.Message)
		})
	}

	status := decode[map[string]any](t, srv.do(t, http.MethodGet, "/api/v1/sessions/dave", "", nil))
	assert.Equal(t, float64(0), status["pending"])
}

func TestClear(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.do(t, http.MethodPost, "/api/v1/sessions/erin/images", "image/png", testutil.PNG(t, testutil.Gradient(4, 4)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = srv.do(t, http.MethodDelete, "/api/v1/sessions/erin", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Clearing twice is fine
	resp = srv.do(t, http.MethodDelete, "/api/v1/sessions/erin", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/v1/sessions/erin/convert", "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestFormats(t *testing.T) {
	srv := newTestServer(t)

	body := decode[FormatsResponse](t, srv.do(t, http.MethodGet, "/api/v1/formats", "", nil))
	assert.Equal(t, []string{"JPEG", "PNG", "BMP", "WEBP", "GIF", "TIFF"}, body.Formats)
}

func TestHistory_Disabled(t *testing.T) {
	c := container.New(config.DefaultConfig(), nil)
	h := NewHandler(nil, c.GetSessionStore(), c.GetNormalizer(), c.GetStatisticsService())

	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebugWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug")
	d := NewDebugWriter(dir, nil)

	path, err := d.Write("team/alpha", 3, []byte("%PDF-1.3"))
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "user_team_alpha_"))
	assert.True(t, strings.HasSuffix(path, "_3images.pdf"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "staging file left behind")
}

func TestErrors_Localized(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		acceptLanguage string
		lang           Language
	}{
		{acceptLanguage: "", lang: English},
		{acceptLanguage: "fa-IR,fa;q=0.9,en;q=0.5", lang: Persian},
		{acceptLanguage: "de-CH", lang: German},
		{acceptLanguage: "fr-FR", lang: English},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang)+"/"+tt.acceptLanguage, func(t *testing.T) {
			resp := srv.do(t, http.MethodPost, "/api/v1/sessions/erin/convert", "", nil, "Accept-Language", tt.acceptLanguage)
			assert.Equal(t, http.StatusConflict, resp.StatusCode)
			assert.Equal(t, string(tt.lang), resp.Header.Get("Content-Language"))

			body := decode[ErrorResponse](t, resp)
			assert.Equal(t, LocalizedMessage(common.KindNoPendingImages, tt.lang), body.Message)
		})
	}
}
