// Package blocks implements the attachment block controllers for the editor:
// one per media kind (PDF, audio), each a two-state machine over the block's
// serialized data.
package blocks

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"scribe/internal/client/uploader"
)

// State is the block's lifecycle state, held explicitly alongside the data so
// the render mode is never re-derived from whether the URL happens to be
// empty.
type State int

const (
	// StateAwaitingInput renders the drop zone, file picker and URL field.
	StateAwaitingInput State = iota
	// StatePopulated renders the preview bound to the stored URL.
	StatePopulated
)

// AttachmentData is the block's serialized form, persisted verbatim inside
// the editor's document JSON.
type AttachmentData struct {
	URL   string                 `json:"url"`
	Title string                 `json:"title,omitempty"`
	File  *uploader.FileMetadata `json:"file,omitempty"`
}

// Valid reports whether the data is structurally fit to persist: a non-empty
// URL, reachable or not.
func (d AttachmentData) Valid() bool {
	return d.URL != ""
}

// kind bundles the per-media-kind policy of a block.
type kind struct {
	name         string
	urlPattern   *regexp.Regexp
	maxBytes     int64
	acceptType   func(string) bool
	upload       func(ctx context.Context, c *uploader.Client, f uploader.File) (*uploader.FileMetadata, error)
	typeErr      string
	urlErr       string
	tooLargeTmpl string
}

var pdfKind = kind{
	name:       "pdf",
	urlPattern: regexp.MustCompile(`(?i)\.pdf(\?.*)?$`),
	maxBytes:   20 << 20,
	acceptType: uploader.IsPDFType,
	upload: func(ctx context.Context, c *uploader.Client, f uploader.File) (*uploader.FileMetadata, error) {
		return c.UploadPDF(ctx, f)
	},
	typeErr:      "Only PDF files are allowed",
	urlErr:       "URL does not point to a PDF file",
	tooLargeTmpl: "PDF file is too large (max %dMB)",
}

var audioKind = kind{
	name:       "audio",
	urlPattern: regexp.MustCompile(`(?i)\.(mp3|wav|ogg|m4a|aac|flac)(\?.*)?$`),
	maxBytes:   50 << 20,
	acceptType: uploader.IsAudioType,
	upload: func(ctx context.Context, c *uploader.Client, f uploader.File) (*uploader.FileMetadata, error) {
		return c.UploadAudio(ctx, f)
	},
	typeErr:      "Only audio files are allowed",
	urlErr:       "URL does not point to an audio file",
	tooLargeTmpl: "Audio file is too large (max %dMB)",
}

// Block is one attachment block instance. It is not safe for concurrent use;
// the editor drives each block from a single goroutine.
type Block struct {
	kind   kind
	state  State
	data   AttachmentData
	errMsg string

	client *uploader.Client
	http   *http.Client

	// ctx is cancelled on Close so in-flight uploads and probes of a
	// torn-down block abort instead of completing against stale state.
	ctx    context.Context
	cancel context.CancelFunc

	// gen invalidates late results after Replace
	gen int
}

// NewPDFBlock creates an empty PDF attachment block.
func NewPDFBlock(client *uploader.Client, httpClient *http.Client) *Block {
	return newBlock(pdfKind, client, httpClient)
}

// NewAudioBlock creates an empty audio attachment block.
func NewAudioBlock(client *uploader.Client, httpClient *http.Client) *Block {
	return newBlock(audioKind, client, httpClient)
}

func newBlock(k kind, client *uploader.Client, httpClient *http.Client) *Block {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Block{
		kind:   k,
		state:  StateAwaitingInput,
		data:   AttachmentData{URL: ""},
		client: client,
		http:   httpClient,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Load restores the block from previously saved data, e.g. when the editor
// re-opens a document.
func (b *Block) Load(data AttachmentData) {
	b.data = data
	if data.Valid() {
		b.state = StatePopulated
	} else {
		b.state = StateAwaitingInput
	}
}

// State returns the current lifecycle state.
func (b *Block) State() State {
	return b.state
}

// Err returns the inline error to display, empty when there is none.
func (b *Block) Err() string {
	return b.errMsg
}

// Save returns the block's data verbatim for the editor's save cycle.
func (b *Block) Save() AttachmentData {
	return b.data
}

// Validate reports whether the saved data should be persisted by the editor.
func (b *Block) Validate() bool {
	return b.data.Valid()
}

// AttachFile uploads a picked or dropped file and transitions to Populated.
// Validation failures and upload failures leave the block in AwaitingInput
// with an inline error; nothing is thrown past this method.
func (b *Block) AttachFile(f uploader.File) error {
	if !b.kind.acceptType(f.ContentType) {
		return b.fail(b.kind.typeErr)
	}
	if f.Size > b.kind.maxBytes {
		return b.fail(fmt.Sprintf(b.kind.tooLargeTmpl, b.kind.maxBytes>>20))
	}

	gen := b.gen
	meta, err := b.kind.upload(b.ctx, b.client, f)
	if err != nil {
		return b.fail(err.Error())
	}
	if gen != b.gen {
		// the block was replaced while the upload was in flight
		return nil
	}

	b.data = AttachmentData{
		URL:   meta.URL,
		Title: meta.Title,
		File:  meta,
	}
	b.state = StatePopulated
	b.errMsg = ""
	return nil
}

// AttachURL accepts a pasted or typed URL: the extension must match the
// kind's pattern and a HEAD probe must confirm reachability with an
// acceptable content type. Only the URL is stored; there is no local file
// metadata to enrich it with.
func (b *Block) AttachURL(rawURL string) error {
	if !b.kind.urlPattern.MatchString(rawURL) {
		return b.fail(b.kind.urlErr)
	}

	gen := b.gen
	if err := b.probe(rawURL); err != nil {
		return b.fail(err.Error())
	}
	if gen != b.gen {
		return nil
	}

	b.data = AttachmentData{URL: rawURL}
	b.state = StatePopulated
	b.errMsg = ""
	return nil
}

// probe issues a best-effort HEAD reachability check. A URL that passes HEAD
// but later 404s on GET is not handled specially.
func (b *Block) probe(rawURL string) error {
	req, err := http.NewRequestWithContext(b.ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("URL is not reachable")
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("URL is not reachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("URL is not reachable")
	}

	contentType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if contentType != "" && !b.kind.acceptType(contentType) && contentType != "application/octet-stream" {
		return fmt.Errorf("%s", b.kind.urlErr)
	}

	return nil
}

// Replace discards the populated data and returns to the upload prompt. A
// still-running attach from before the replacement is ignored when it lands.
func (b *Block) Replace() {
	b.gen++
	b.state = StateAwaitingInput
	b.data = AttachmentData{URL: ""}
	b.errMsg = ""
}

// Close aborts any in-flight upload or probe. The block must not be used
// afterwards.
func (b *Block) Close() {
	b.cancel()
}

func (b *Block) fail(msg string) error {
	b.errMsg = msg
	return fmt.Errorf("%s", msg)
}
