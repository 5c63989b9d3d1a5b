package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateDescription(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short", "Read a file", 20, "Read a file"},
		{"exact", "abcdef", 6, "abcdef"},
		{"cut", "Read the complete contents of a file", 12, "Read the ..."},
		{"newlines collapse", "Read\na   file\t\tnow", 40, "Read a file now"},
		{"unicode safe", "日本語のテキストです", 6, "日本語..."},
		{"tiny max is clamped", "abcdef", 1, "a..."},
		{"empty", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateDescription(tt.input, tt.maxLen))
		})
	}
}

func TestSingleLine(t *testing.T) {
	assert.Equal(t, "a b c", SingleLine("  a\n b \r\n c  "))
}
