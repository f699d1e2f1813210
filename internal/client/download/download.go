// Package download retrieves a remote attachment to local storage through an
// ordered cascade of strategies, each attempted at most once per call.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/browser"
)

// Strategy identifies which cascade step produced the outcome.
type Strategy int

const (
	// StrategyPicker saved through a user-chosen destination.
	StrategyPicker Strategy = iota + 1
	// StrategyDirect fetched the bytes and wrote them into the download
	// directory.
	StrategyDirect
	// StrategyBrowser handed the URL to the system browser.
	StrategyBrowser
)

// Outcome reports which strategy succeeded. Cancelled marks the user
// dismissing the destination picker, which is deliberately not an error.
type Outcome struct {
	Strategy  Strategy
	Path      string
	Cancelled bool
}

// ErrCancelled is returned by a Picker when the user dismisses the dialog.
var ErrCancelled = errors.New("destination choice cancelled")

// Picker asks the user where to save a file. A nil Picker on the Retriever
// means the strategy is unavailable and the cascade starts at the direct
// fetch.
type Picker interface {
	Pick(suggested string) (string, error)
}

// DefaultName is used when neither the response headers nor the URL yield a
// file name.
const DefaultName = "download"

// Retriever runs the download cascade.
type Retriever struct {
	http   *http.Client
	picker Picker
	dir    string
	open   func(string) error
}

// NewRetriever creates a retriever saving into dir. picker may be nil;
// httpClient may be nil to use http.DefaultClient.
func NewRetriever(httpClient *http.Client, picker Picker, dir string) *Retriever {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Retriever{
		http:   httpClient,
		picker: picker,
		dir:    dir,
		open:   browser.OpenURL,
	}
}

// Retrieve walks the cascade: destination picker, then direct fetch into the
// download directory, then the system browser. Each strategy runs at most
// once; a failure falls through to the next, and only when the last one
// fails does Retrieve return an error.
func (r *Retriever) Retrieve(ctx context.Context, rawURL, suggestedName string) (*Outcome, error) {
	if r.picker != nil {
		outcome, err := r.viaPicker(ctx, rawURL, suggestedName)
		if err == nil {
			return outcome, nil
		}
		if errors.Is(err, ErrCancelled) {
			return &Outcome{Strategy: StrategyPicker, Cancelled: true}, nil
		}
		// fall through
	}

	if outcome, err := r.viaDirect(ctx, rawURL, suggestedName); err == nil {
		return outcome, nil
	}

	if err := r.open(rawURL); err != nil {
		return nil, fmt.Errorf("all download strategies failed: %w", err)
	}
	return &Outcome{Strategy: StrategyBrowser}, nil
}

// viaPicker prompts for a destination, then fetches into it.
func (r *Retriever) viaPicker(ctx context.Context, rawURL, suggestedName string) (*Outcome, error) {
	dest, err := r.picker.Pick(resolveName(nil, rawURL, suggestedName))
	if err != nil {
		return nil, err
	}

	body, _, err := r.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if err := writeFile(dest, body); err != nil {
		return nil, err
	}

	return &Outcome{Strategy: StrategyPicker, Path: dest}, nil
}

// viaDirect fetches into the download directory under a resolved name. The
// bytes land in a temp file first and are renamed into place on completion,
// so a partial transfer never shows up under the final name.
func (r *Retriever) viaDirect(ctx context.Context, rawURL, suggestedName string) (*Outcome, error) {
	body, header, err := r.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	dest := filepath.Join(r.dir, resolveName(header, rawURL, suggestedName))

	tmp, err := os.CreateTemp(r.dir, ".scribe-download-*")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, err
	}

	return &Outcome{Strategy: StrategyDirect, Path: dest}, nil
}

func (r *Retriever) fetch(ctx context.Context, rawURL string) (io.ReadCloser, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, nil, fmt.Errorf("fetch failed with status %d", resp.StatusCode)
	}

	return resp.Body, resp.Header, nil
}

func writeFile(dest string, body io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dest)
		return err
	}
	return f.Close()
}

// resolveName picks the file name to save under: the server's disposition
// hint, then the URL's path segment, then the suggested name, then a fixed
// default.
func resolveName(header http.Header, rawURL, suggested string) string {
	if header != nil {
		if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
			if name := sanitizeName(params["filename"]); name != "" {
				return name
			}
		}
	}

	if u, err := url.Parse(rawURL); err == nil {
		if name := sanitizeName(path.Base(u.Path)); name != "" {
			return name
		}
	}

	if name := sanitizeName(suggested); name != "" {
		return name
	}

	return DefaultName
}

// sanitizeName strips any path components a hostile header might smuggle in.
func sanitizeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == string(filepath.Separator) {
		return ""
	}
	return name
}
