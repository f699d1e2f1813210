// Package uploader is the client side of the upload pipeline: a generic
// multipart uploader for the gateway plus typed wrappers for PDF and audio
// attachments.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// defaultFailure is shown when the gateway gives us nothing better.
const defaultFailure = "Upload failed"

// File is one upload attempt: the payload plus what the client knows about it.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Result is a successful upload as seen by the client. The gateway does not
// echo name and size back, so they are carried over from the source file.
type Result struct {
	PublicURL string
	Name      string
	Size      int64
	Title     string
}

// Client talks to the upload gateway.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an uploader client. httpClient may be nil, in which case
// http.DefaultClient is used.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
	}
}

// gatewayResponse mirrors the gateway's JSON bodies: either a success
// envelope or an error message.
type gatewayResponse struct {
	Success   bool   `json:"success"`
	PublicURL string `json:"publicUrl"`
	Type      string `json:"type"`
	Error     string `json:"error"`
}

// Upload posts the file to the gateway as multipart form data. Transport
// errors and error responses are both normalized into a returned error
// carrying a user-presentable message; nothing is thrown past this boundary.
func (c *Client) Upload(ctx context.Context, f File) (*Result, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, f.Name))
	header.Set("Content-Type", f.ContentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", defaultFailure, err)
	}
	if _, err := io.Copy(part, f.Reader); err != nil {
		return nil, fmt.Errorf("%s: %w", defaultFailure, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", defaultFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", defaultFailure, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		// connectivity loss and friends: converted, never propagated raw
		return nil, fmt.Errorf("%s: %w", defaultFailure, err)
	}
	defer resp.Body.Close()

	var parsed gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%s: unreadable response", defaultFailure)
	}

	if resp.StatusCode != http.StatusOK || !parsed.Success {
		if parsed.Error != "" {
			return nil, fmt.Errorf("%s", parsed.Error)
		}
		return nil, fmt.Errorf("%s", defaultFailure)
	}

	return &Result{
		PublicURL: parsed.PublicURL,
		Name:      f.Name,
		Size:      f.Size,
		Title:     trimExtension(f.Name),
	}, nil
}

// trimExtension derives a display title from a file name.
func trimExtension(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
