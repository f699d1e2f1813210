package upload

import (
	"errors"
	"fmt"
	"io"
)

// UploadResponse is the success body returned by POST /api/upload.
type UploadResponse struct {
	Success   bool   `json:"success"`
	PublicURL string `json:"publicUrl"`
	Type      string `json:"type"`
}

// ErrorResponse is the error body for all 4xx/5xx gateway responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Input describes one upload attempt as received by the gateway.
type Input struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredFile is the outcome of a successful upload.
type StoredFile struct {
	Key       string
	PublicURL string
	Category  Category
	Name      string
	Size      int64
}

// ErrNoFile is returned when the multipart body carries no file field.
var ErrNoFile = errors.New("no file provided")

// UnsupportedTypeError is returned when the declared MIME type matches no
// category allow-list.
type UnsupportedTypeError struct {
	ContentType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.ContentType)
}

// TooLargeError is returned when a file exceeds its category's size ceiling.
type TooLargeError struct {
	Category Category
	Size     int64
	Limit    int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s file too large: %d bytes (max %d)", e.Category, e.Size, e.Limit)
}
