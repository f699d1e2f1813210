package upload

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(st *fakeStorage) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := testLogger()
	h := NewHandler(newTestService(st, nil, nil), logger)
	return NewRouter(h, logger, RouterConfig{AllowOrigins: []string{"http://localhost:5173"}})
}

// multipartBody builds a multipart body with one "file" part carrying an
// explicit Content-Type.
func multipartBody(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func TestUpload_PDFSuccess(t *testing.T) {
	st := &fakeStorage{}
	r := newTestRouter(st)

	body, contentType := multipartBody(t, "file", "report.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "pdf", resp.Type)
	assert.Equal(t, "http://cdn.local/media/pdfs/1700000000000-report.pdf", resp.PublicURL)
	assert.Len(t, st.uploads, 1)
}

func TestUpload_NoFile(t *testing.T) {
	st := &fakeStorage{}
	r := newTestRouter(st)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("not_a_file", "x"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no file provided")
	assert.Empty(t, st.uploads)
}

func TestUpload_UnsupportedType(t *testing.T) {
	st := &fakeStorage{}
	r := newTestRouter(st)

	body, contentType := multipartBody(t, "file", "notes.txt", "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")
	assert.Empty(t, st.uploads)
}

func TestUpload_ImageOverCeiling(t *testing.T) {
	st := &fakeStorage{}
	r := newTestRouter(st)

	// 10MB ceiling for images; one byte over is enough to trip it
	content := bytes.Repeat([]byte("a"), MaxImageBytes+1)
	body, contentType := multipartBody(t, "file", "huge.png", "image/png", content)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too large")
	assert.Contains(t, w.Body.String(), "image")
	assert.Empty(t, st.uploads)
}

func TestUpload_BackendFailureIsOpaque(t *testing.T) {
	st := &fakeStorage{failPut: true}
	r := newTestRouter(st)

	body, contentType := multipartBody(t, "file", "report.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Upload failed")
	// the backend error detail must not leak to the client
	assert.NotContains(t, w.Body.String(), "backend unavailable")
}

func TestDelete_RemovesObject(t *testing.T) {
	st := &fakeStorage{}
	r := newTestRouter(st)

	req := httptest.NewRequest(http.MethodDelete, "/api/upload/pdfs/1700000000000-report.pdf", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"pdfs/1700000000000-report.pdf"}, st.deletes)
}

func TestDelete_UnknownFolder(t *testing.T) {
	st := &fakeStorage{}
	r := newTestRouter(st)

	req := httptest.NewRequest(http.MethodDelete, "/api/upload/secrets/key.pdf", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, st.deletes)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&fakeStorage{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "healthy"))
}
