package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("garbage"))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatText, parseFormat("text"))
	assert.Equal(t, FormatJSON, parseFormat(""))
	assert.Equal(t, FormatJSON, parseFormat("json"))
}

func TestNewReturnsLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	assert.NotNil(t, New())
}
