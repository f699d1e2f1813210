package upload

import (
	"fmt"
	"regexp"
	"time"
)

// Category is the coarse media classification used for policy decisions and
// storage key prefixes.
type Category string

const (
	CategoryImage Category = "image"
	CategoryVideo Category = "video"
	CategoryAudio Category = "audio"
	CategoryPDF   Category = "pdf"
)

// Per-category size ceilings. Fixed policy, not runtime-configurable.
const (
	MaxImageBytes = 10 << 20  // 10MB
	MaxVideoBytes = 100 << 20 // 100MB
	MaxAudioBytes = 50 << 20  // 50MB
	MaxPDFBytes   = 20 << 20  // 20MB
)

var categoryMaxBytes = map[Category]int64{
	CategoryImage: MaxImageBytes,
	CategoryVideo: MaxVideoBytes,
	CategoryAudio: MaxAudioBytes,
	CategoryPDF:   MaxPDFBytes,
}

var categoryFolders = map[Category]string{
	CategoryImage: "images",
	CategoryVideo: "videos",
	CategoryAudio: "audio",
	CategoryPDF:   "pdfs",
}

// allowedTypes maps declared MIME types onto categories.
var allowedTypes = map[string]Category{
	"image/jpeg": CategoryImage,
	"image/jpg":  CategoryImage,
	"image/png":  CategoryImage,
	"image/gif":  CategoryImage,
	"image/webp": CategoryImage,

	"video/mp4":       CategoryVideo,
	"video/webm":      CategoryVideo,
	"video/quicktime": CategoryVideo,

	"audio/mpeg":  CategoryAudio,
	"audio/mp3":   CategoryAudio,
	"audio/wav":   CategoryAudio,
	"audio/x-wav": CategoryAudio,
	"audio/ogg":   CategoryAudio,
	"audio/mp4":   CategoryAudio,
	"audio/aac":   CategoryAudio,
	"audio/x-m4a": CategoryAudio,

	"application/pdf": CategoryPDF,
}

// Classify matches a declared MIME type against the fixed allow-lists.
func Classify(contentType string) (Category, bool) {
	c, ok := allowedTypes[contentType]
	return c, ok
}

// MaxBytes returns the size ceiling for a category.
func MaxBytes(c Category) int64 {
	return categoryMaxBytes[c]
}

// Folder returns the storage key prefix for a category.
func (c Category) Folder() string {
	return categoryFolders[c]
}

// ParseFolder maps a storage folder name back to its category.
func ParseFolder(folder string) (Category, bool) {
	for c, f := range categoryFolders {
		if f == folder {
			return c, true
		}
	}
	return "", false
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9.-]`)

// MakeKey derives the storage key for an upload:
// "<category-folder>/<epoch-millis>-<sanitized-filename>". The millisecond
// timestamp makes keys effectively unique per upload, so repeated uploads of
// the same file never collide outside the same-millisecond window.
func MakeKey(c Category, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d-%s", c.Folder(), now.UnixMilli(), SanitizeFilename(filename))
}

// SanitizeFilename replaces every character outside [A-Za-z0-9.-] with "_".
func SanitizeFilename(name string) string {
	return unsafeKeyChars.ReplaceAllString(name, "_")
}
