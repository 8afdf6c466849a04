package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", tp.TruncateText("hello", 100))
	})

	t.Run("zero max size unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", tp.TruncateText("hello", 0))
	})

	t.Run("truncates to max size", func(t *testing.T) {
		text := strings.Repeat("a", 100)
		assert.Len(t, tp.TruncateText(text, 10), 10)
	})

	t.Run("never splits a multi-byte rune", func(t *testing.T) {
		text := strings.Repeat("é", 10)
		truncated := tp.TruncateText(text, 5)
		assert.True(t, utf8.ValidString(truncated))
		assert.LessOrEqual(t, len(truncated), 5)
	})
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	t.Run("valid text unchanged", func(t *testing.T) {
		assert.Equal(t, "héllo wörld", tp.SanitizeUTF8("héllo wörld"))
	})

	t.Run("drops invalid bytes", func(t *testing.T) {
		sanitized := tp.SanitizeUTF8("ok\xff\xfeok")
		assert.True(t, utf8.ValidString(sanitized))
		assert.Equal(t, "okok", sanitized)
	})
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	processed := tp.ProcessText(strings.Repeat("é", 100)+"\xff", 21)
	assert.True(t, utf8.ValidString(processed))
	assert.LessOrEqual(t, len(processed), 21)
}
