package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdubravic83/POtranslate/internal/jobs"
	"github.com/mdubravic83/POtranslate/internal/provider"
	"github.com/mdubravic83/POtranslate/internal/store/memory"
	"github.com/mdubravic83/POtranslate/internal/translation"
	"github.com/mdubravic83/POtranslate/internal/workerpool"
)

const catalogBody = `msgid "Hello"
msgstr ""

msgid ""
msgstr ""

msgid "Bye"
msgstr "Ciao"
`

type testServer struct {
	handler  http.Handler
	provider *provider.Static
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	pool := workerpool.New(2)
	t.Cleanup(pool.Close)

	prov := provider.NewStatic(map[string]string{"Hello": "Pozdrav"})
	pipeline := translation.NewPipeline(prov, pool, translation.WithPacing(0))
	svc := jobs.New(pipeline, memory.New())

	return &testServer{
		handler:  New(svc, opts...).Routes(),
		provider: prov,
	}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/translate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e.Detail
}

func TestRoot(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"PO Translation Tool API"}`, rec.Body.String())
}

func TestLanguages(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/languages", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Languages map[string]string `json:"languages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Languages, 38)
	assert.Equal(t, "Chinese (Simplified)", body.Languages["zh-CN"])
}

func TestTranslateAndRetrieve(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(uploadRequest(t, "app.po", catalogBody, map[string]string{"target_lang": "hr"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res translation.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 3, res.TotalEntries)
	assert.Equal(t, 1, res.TranslatedEntries)
	assert.Equal(t, 2, res.SkippedEntries)
	assert.Equal(t, 0, res.ErrorEntries)
	assert.Equal(t, "auto", res.SourceLang)
	require.Len(t, res.Entries, 3)
	assert.Equal(t, translation.StatusSuccess, res.Entries[0].Status)
	assert.Equal(t, "Pozdrav", res.Entries[0].Translated)
	assert.Equal(t, translation.StatusSkipped, res.Entries[1].Status)
	assert.Equal(t, translation.StatusSkipped, res.Entries[2].Status)
	assert.Contains(t, res.POContent, `msgstr "Pozdrav"`)

	t.Run("get", func(t *testing.T) {
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/translations/"+res.ID, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var job translation.Job
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
		assert.Equal(t, res.Entries, job.Entries)
		assert.NotContains(t, rec.Body.String(), "po_content")
	})

	t.Run("list", func(t *testing.T) {
		first := ts.do(httptest.NewRequest(http.MethodGet, "/api/translations", nil))
		require.Equal(t, http.StatusOK, first.Code)
		second := ts.do(httptest.NewRequest(http.MethodGet, "/api/translations", nil))
		assert.Equal(t, first.Body.String(), second.Body.String())

		var list []map[string]any
		require.NoError(t, json.Unmarshal(first.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, res.ID, list[0]["id"])
		assert.NotContains(t, list[0], "entries")
	})

	t.Run("download", func(t *testing.T) {
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/translations/"+res.ID+"/download", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
		assert.Equal(t, "attachment; filename=app_hr.po", rec.Header().Get("Content-Disposition"))
		assert.Contains(t, rec.Body.String(), `msgstr "Pozdrav"`)
		assert.Contains(t, rec.Body.String(), `"Language: hr\n"`)
	})
}

func TestTranslateValidation(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		fields   map[string]string
		detail   string
	}{
		{"wrong extension", "app.txt", nil, "Only .po files are supported"},
		{"unsupported language", "app.po", map[string]string{"target_lang": "xx"}, "Unsupported target language: xx"},
		{"missing file", "", nil, "No file uploaded"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(uploadRequest(t, tc.filename, catalogBody, tc.fields))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.detail, decodeDetail(t, rec))
			assert.Empty(t, ts.provider.Calls())

			list := ts.do(httptest.NewRequest(http.MethodGet, "/api/translations", nil))
			assert.JSONEq(t, `[]`, list.Body.String())
		})
	}
}

func TestTranslateUploadTooLarge(t *testing.T) {
	ts := newTestServer(t, WithMaxUploadBytes(512))
	rec := ts.do(uploadRequest(t, "big.po", strings.Repeat("# padding\n", 200), nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ts.provider.Calls())
}

func TestTranslateMalformed(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(uploadRequest(t, "app.po", "<html>not a catalog</html>\n", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(decodeDetail(t, rec), "Error processing file: invalid catalog"))
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/translations/nope", "/api/translations/nope/download"} {
		t.Run(path, func(t *testing.T) {
			rec := ts.do(httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "Translation not found", decodeDetail(t, rec))
			assert.NotContains(t, rec.Header().Get("Content-Disposition"), "attachment")
		})
	}
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/status", strings.NewReader(`{"client_name":"probe"}`))
	rec := ts.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var check translation.StatusCheck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &check))
	assert.Equal(t, "probe", check.ClientName)
	assert.NotEmpty(t, check.ID)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var checks []translation.StatusCheck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &checks))
	require.Len(t, checks, 1)
	assert.Equal(t, check.ID, checks[0].ID)

	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/status", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, WithCORSOrigins([]string{"https://app.example.com"}))

	req := httptest.NewRequest(http.MethodGet, "/api/languages", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := ts.do(req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

type downStore struct {
	*memory.Store
}

func (downStore) Ping(ctx context.Context) error {
	return errors.New("connection refused")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	pool := workerpool.New(1)
	defer pool.Close()
	svc := jobs.New(translation.NewPipeline(provider.Echo{}, pool), downStore{memory.New()})
	rec = httptest.NewRecorder()
	New(svc).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, ParseOrigins(""))
	assert.Equal(t, []string{"*"}, ParseOrigins("*"))
	assert.Equal(t, []string{"https://a", "https://b"}, ParseOrigins(" https://a, https://b ,"))
}

func TestShortError(t *testing.T) {
	inner := errors.New("connection refused")
	err := fmt.Errorf("saving job: %w", inner)
	assert.Equal(t, "saving job", shortError(err))
	assert.Equal(t, "plain", shortError(errors.New("plain")))
}
