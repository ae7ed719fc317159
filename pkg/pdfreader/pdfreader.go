package pdfreader

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Reader extracts plain text from PDF files.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

// ExtractText concatenates the plain text of every page and normalizes the
// result. Pages that fail to extract are skipped; a file that yields no
// text at all (typically a scanned image) is an error.
func (r *Reader) ExtractText(path string) (string, error) {
	f, doc, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := normalize(sb.String())
	if text == "" {
		return "", fmt.Errorf("no text extracted from %s", path)
	}

	return text, nil
}

// normalize replaces NULs and newlines with spaces and collapses runs of
// whitespace, matching how downstream pattern matching expects the text.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\x00", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.Join(strings.Fields(s), " ")
}
