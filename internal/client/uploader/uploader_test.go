package uploader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGateway returns a test server that answers like the upload gateway and
// counts how many uploads it saw.
func newGateway(t *testing.T, status int, body map[string]any) (*httptest.Server, *int) {
	t.Helper()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, "/api/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(32<<20))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func TestUpload_Success(t *testing.T) {
	srv, _ := newGateway(t, http.StatusOK, map[string]any{
		"success":   true,
		"publicUrl": "http://cdn.local/media/pdfs/1-report.pdf",
		"type":      "pdf",
	})

	c := NewClient(srv.URL, nil)
	res, err := c.Upload(context.Background(), File{
		Name:        "report.pdf",
		ContentType: "application/pdf",
		Size:        8,
		Reader:      strings.NewReader("%PDF-1.4"),
	})
	require.NoError(t, err)

	assert.Equal(t, "http://cdn.local/media/pdfs/1-report.pdf", res.PublicURL)
	// name and size come from the source file, not the gateway
	assert.Equal(t, "report.pdf", res.Name)
	assert.Equal(t, int64(8), res.Size)
	assert.Equal(t, "report", res.Title)
}

func TestUpload_ServerErrorMessageSurfaces(t *testing.T) {
	srv, _ := newGateway(t, http.StatusBadRequest, map[string]any{
		"error": "unsupported file type: application/zip",
	})

	c := NewClient(srv.URL, nil)
	_, err := c.Upload(context.Background(), File{
		Name:        "x.zip",
		ContentType: "application/zip",
		Reader:      strings.NewReader("zip"),
	})
	require.Error(t, err)
	assert.Equal(t, "unsupported file type: application/zip", err.Error())
}

func TestUpload_MissingSuccessFlagIsFailure(t *testing.T) {
	srv, _ := newGateway(t, http.StatusOK, map[string]any{
		"publicUrl": "http://cdn.local/x",
	})

	c := NewClient(srv.URL, nil)
	_, err := c.Upload(context.Background(), File{
		Name:        "x.pdf",
		ContentType: "application/pdf",
		Reader:      strings.NewReader("%PDF"),
	})
	require.Error(t, err)
	assert.Equal(t, "Upload failed", err.Error())
}

func TestUpload_NetworkErrorIsConverted(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // force a connection error

	c := NewClient(srv.URL, nil)
	_, err := c.Upload(context.Background(), File{
		Name:        "x.pdf",
		ContentType: "application/pdf",
		Reader:      strings.NewReader("%PDF"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Upload failed")
}

func TestTrimExtension(t *testing.T) {
	assert.Equal(t, "report", trimExtension("report.pdf"))
	assert.Equal(t, "archive.tar", trimExtension("archive.tar.gz"))
	assert.Equal(t, "noext", trimExtension("noext"))
	assert.Equal(t, ".hidden", trimExtension(".hidden"))
}
