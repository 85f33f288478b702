package extract

import (
	"strings"
	"unicode/utf8"
)

// NormalizeWhitespace collapses every whitespace run into a single space and
// trims both ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts text to at most max runes, backing off to the last space
// before the cut, and marks the cut with an ellipsis.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}

	cut := string([]rune(text)[:max])
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ") + ellipsis
}
