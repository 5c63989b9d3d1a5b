// Package strings holds small text helpers shared by the CLI and the
// meta-tools server.
package strings

import (
	"strings"
)

// DescriptionMaxLen bounds descriptions in listings.
const DescriptionMaxLen = 80

// SingleLine collapses every run of whitespace, newlines included, into one space.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most maxLen runes, marking the cut with "...".
// maxLen values below 4 are raised to 4.
func Truncate(s string, maxLen int) string {
	if maxLen < 4 {
		maxLen = 4
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// TruncateDescription renders s on a single line of at most maxLen runes.
func TruncateDescription(s string, maxLen int) string {
	return Truncate(SingleLine(s), maxLen)
}
