package logging

import (
	"strings"
	"unicode/utf8"
)

// MaxSnippetLogLength is the maximum length of article or context text to log.
// Full article bodies never belong in log output.
const MaxSnippetLogLength = 120

// Snippet collapses whitespace and truncates text for structured log fields.
// Safe on multi-byte text: truncation never splits a rune.
func Snippet(s string) string {
	return SnippetN(s, MaxSnippetLogLength)
}

// SnippetN is Snippet with an explicit length limit.
func SnippetN(s string, maxLen int) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(collapsed) <= maxLen {
		return collapsed
	}

	runes := []rune(collapsed)
	return string(runes[:maxLen]) + "..."
}
