package uploader

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// Kind-specific rejection messages, shown inline in the block UI.
var (
	ErrNotPDF   = errors.New("Only PDF files are allowed")
	ErrNotAudio = errors.New("Only audio files are allowed")
)

// FileMetadata is the enriched attachment metadata stored in block data after
// a successful typed upload. Duration and Format are audio-only.
type FileMetadata struct {
	URL      string  `json:"url"`
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	Title    string  `json:"title,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Format   string  `json:"format,omitempty"`
}

var pdfTypes = map[string]bool{
	"application/pdf": true,
}

var audioTypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/ogg":   true,
	"audio/mp4":   true,
	"audio/aac":   true,
	"audio/x-m4a": true,
}

// IsPDFType reports whether the declared MIME type is accepted for PDF
// attachments.
func IsPDFType(contentType string) bool {
	return pdfTypes[contentType]
}

// IsAudioType reports whether the declared MIME type is accepted for audio
// attachments.
func IsAudioType(contentType string) bool {
	return audioTypes[contentType]
}

// UploadPDF validates the file as a PDF and uploads it through the generic
// uploader, reshaping the result into attachment metadata.
func (c *Client) UploadPDF(ctx context.Context, f File) (*FileMetadata, error) {
	if !IsPDFType(f.ContentType) {
		return nil, ErrNotPDF
	}

	res, err := c.Upload(ctx, f)
	if err != nil {
		return nil, err
	}

	return &FileMetadata{
		URL:   res.PublicURL,
		Name:  res.Name,
		Size:  res.Size,
		Title: res.Title,
	}, nil
}

// UploadAudio validates the file as audio, probes its duration locally (the
// gateway has no way to know it) and uploads it through the generic uploader.
func (c *Client) UploadAudio(ctx context.Context, f File) (*FileMetadata, error) {
	if !IsAudioType(f.ContentType) {
		return nil, ErrNotAudio
	}

	// Duration probing needs to rewind the stream before the upload reads it.
	// A non-seekable source simply skips the probe.
	var duration float64
	if rs, ok := f.Reader.(io.ReadSeeker); ok {
		if d, known := ProbeDuration(rs, f.ContentType); known {
			duration = d
		}
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, errors.New(defaultFailure)
		}
	}

	res, err := c.Upload(ctx, f)
	if err != nil {
		return nil, err
	}

	return &FileMetadata{
		URL:      res.PublicURL,
		Name:     res.Name,
		Size:     res.Size,
		Title:    res.Title,
		Duration: duration,
		Format:   audioFormat(f.Name),
	}, nil
}

// audioFormat derives a short format tag from the file extension.
func audioFormat(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
