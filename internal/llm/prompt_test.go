package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestClampContent(t *testing.T) {
	t.Run("short content passes through", func(t *testing.T) {
		assert.Equal(t, "short", clampContent("short"))
	})

	t.Run("truncation lands on a rune boundary", func(t *testing.T) {
		// 3-byte runes: the byte cap falls mid-rune and must back off.
		content := strings.Repeat("日", maxPromptContent)
		clamped := clampContent(content)
		assert.True(t, utf8.ValidString(clamped))
		assert.Equal(t, maxPromptContent-2, len(clamped))
	})

	t.Run("clamped facts prompt stays valid UTF-8", func(t *testing.T) {
		prompt := BuildFactsPrompt(FactsPromptInput{
			Filename: "doc.txt",
			ModTime:  "2024-01-01T00:00:00Z",
			Content:  strings.Repeat("è", maxPromptContent),
		})
		assert.True(t, utf8.ValidString(prompt))
	})
}
