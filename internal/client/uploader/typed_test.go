package uploader

import (
	"bytes"
	"context"
	"encoding/binary"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadPDF_RejectsWrongTypeWithoutNetworkCall(t *testing.T) {
	srv, calls := newGateway(t, http.StatusOK, map[string]any{"success": true})

	c := NewClient(srv.URL, nil)
	_, err := c.UploadPDF(context.Background(), File{
		Name:        "song.mp3",
		ContentType: "audio/mpeg",
		Reader:      strings.NewReader("ID3"),
	})

	assert.ErrorIs(t, err, ErrNotPDF)
	assert.Zero(t, *calls)
}

func TestUploadPDF_ShapesMetadata(t *testing.T) {
	srv, _ := newGateway(t, http.StatusOK, map[string]any{
		"success":   true,
		"publicUrl": "http://cdn.local/media/pdfs/1-report.pdf",
		"type":      "pdf",
	})

	c := NewClient(srv.URL, nil)
	meta, err := c.UploadPDF(context.Background(), File{
		Name:        "report.pdf",
		ContentType: "application/pdf",
		Size:        1024,
		Reader:      strings.NewReader("%PDF-1.4"),
	})
	require.NoError(t, err)

	assert.Equal(t, "http://cdn.local/media/pdfs/1-report.pdf", meta.URL)
	assert.Equal(t, "report.pdf", meta.Name)
	assert.Equal(t, int64(1024), meta.Size)
	assert.Equal(t, "report", meta.Title)
	assert.Zero(t, meta.Duration)
	assert.Empty(t, meta.Format)
}

func TestUploadAudio_RejectsWrongType(t *testing.T) {
	srv, calls := newGateway(t, http.StatusOK, map[string]any{"success": true})

	c := NewClient(srv.URL, nil)
	_, err := c.UploadAudio(context.Background(), File{
		Name:        "doc.pdf",
		ContentType: "application/pdf",
		Reader:      strings.NewReader("%PDF"),
	})

	assert.ErrorIs(t, err, ErrNotAudio)
	assert.Zero(t, *calls)
}

func TestUploadAudio_ProbesWAVDuration(t *testing.T) {
	srv, _ := newGateway(t, http.StatusOK, map[string]any{
		"success":   true,
		"publicUrl": "http://cdn.local/media/audio/1-tone.wav",
		"type":      "audio",
	})

	wav := buildWAV(t, 16000) // 1 second at 8kHz/16bit mono

	c := NewClient(srv.URL, nil)
	meta, err := c.UploadAudio(context.Background(), File{
		Name:        "tone.wav",
		ContentType: "audio/wav",
		Size:        int64(wav.Len()),
		Reader:      bytes.NewReader(wav.Bytes()),
	})
	require.NoError(t, err)

	assert.Equal(t, "wav", meta.Format)
	assert.InDelta(t, 1.0, meta.Duration, 0.05)
}

func TestUploadAudio_UnknownDurationOnDecodeFailure(t *testing.T) {
	srv, _ := newGateway(t, http.StatusOK, map[string]any{
		"success":   true,
		"publicUrl": "http://cdn.local/media/audio/1-song.mp3",
		"type":      "audio",
	})

	c := NewClient(srv.URL, nil)
	meta, err := c.UploadAudio(context.Background(), File{
		Name:        "song.mp3",
		ContentType: "audio/mpeg",
		Size:        12,
		Reader:      bytes.NewReader([]byte("not really mp3")),
	})
	require.NoError(t, err)

	// duration stays unknown, the upload itself still succeeds
	assert.Zero(t, meta.Duration)
	assert.Equal(t, "mp3", meta.Format)
}

func TestProbeDuration_UnsupportedFormat(t *testing.T) {
	_, known := ProbeDuration(bytes.NewReader([]byte("OggS")), "audio/ogg")
	assert.False(t, known)
}

// buildWAV writes a minimal PCM WAV: 8kHz, 16-bit, mono, dataLen bytes of
// silence. AvgBytesPerSec is 16000, so dataLen=16000 is one second.
func buildWAV(t *testing.T, dataLen int) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	le := binary.LittleEndian

	write := func(v any) {
		require.NoError(t, binary.Write(&buf, le, v))
	}

	buf.WriteString("RIFF")
	write(uint32(4 + 24 + 8 + dataLen)) // riff chunk size
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	write(uint32(16))
	write(uint16(1)) // PCM
	write(uint16(1)) // mono
	write(uint32(8000))
	write(uint32(16000)) // byte rate
	write(uint16(2))     // block align
	write(uint16(16))    // bits per sample

	buf.WriteString("data")
	write(uint32(dataLen))
	buf.Write(make([]byte, dataLen))

	return &buf
}
