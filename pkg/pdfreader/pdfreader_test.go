package pdfreader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"newlines become spaces", "line one\nline two", "line one line two"},
		{"nul bytes removed", "a\x00b", "a b"},
		{"whitespace collapsed", "a   b\t\tc \n d", "a b c d"},
		{"trimmed", "  padded  ", "padded"},
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(tt.input))
		})
	}
}

func TestExtractTextMissingFile(t *testing.T) {
	r := New()
	_, err := r.ExtractText("does-not-exist.pdf")
	assert.Error(t, err)
}
