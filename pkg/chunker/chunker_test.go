package chunker_test

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlegis/billbot/internal/models"
	"github.com/arlegis/billbot/pkg/chunker"
)

func TestSplit(t *testing.T) {
	var cases = []struct {
		input   string
		size    int
		overlap int
		output  []string
	}{
		{input: "abcdefg", size: 3, overlap: 1, output: []string{"abc", "cde", "efg"}},
		{input: "abcdefg", size: 9, overlap: 5, output: []string{"abcdefg"}},
		{input: "abc", size: 3, overlap: 1, output: []string{"abc"}},
		{input: "", size: 9, overlap: 5, output: nil},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			ch := chunker.NewWithConfig(chunker.ChunkerConfig{
				ChunkSize:    c.size,
				ChunkOverlap: c.overlap,
			})
			assert.Equal(t, c.output, ch.Split(c.input))
		})
	}
}

func TestSplitReconstructsText(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 100)

	cases := []struct {
		size    int
		overlap int
	}{
		{size: 500, overlap: 50},
		{size: 2000, overlap: 300},
		{size: 100, overlap: 99},
		{size: 7, overlap: 3},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("size_%d_overlap_%d", c.size, c.overlap), func(t *testing.T) {
			ch := chunker.NewWithConfig(chunker.ChunkerConfig{
				ChunkSize:    c.size,
				ChunkOverlap: c.overlap,
			})
			chunks := ch.Split(text)
			require.NotEmpty(t, chunks)

			// Dropping the overlap prefix of every chunk after the first
			// must reproduce the input exactly.
			var sb strings.Builder
			for i, chunk := range chunks {
				assert.LessOrEqual(t, len(chunk), c.size)
				if i == 0 {
					sb.WriteString(chunk)
				} else {
					sb.WriteString(chunk[c.overlap:])
				}
			}
			assert.Equal(t, text, sb.String())
		})
	}
}

func TestSplitWorkedExample(t *testing.T) {
	text := strings.Repeat("x", 1000)
	ch := chunker.NewWithConfig(chunker.ChunkerConfig{
		ChunkSize:    500,
		ChunkOverlap: 50,
	})

	chunks := ch.Split(text)
	require.Len(t, chunks, 3)
	assert.Equal(t, 500, len(chunks[0]))
	assert.Equal(t, 500, len(chunks[1]))
	assert.Equal(t, 100, len(chunks[2]))
	assert.Equal(t, chunks[0][450:500], chunks[1][0:50])
}

func TestSplitPreservesMultibyteRunes(t *testing.T) {
	text := strings.Repeat("é", 10)
	ch := chunker.NewWithConfig(chunker.ChunkerConfig{
		ChunkSize:    4,
		ChunkOverlap: 1,
	})

	chunks := ch.Split(text)
	require.Len(t, chunks, 3)

	// Windows are counted in runes, so no chunk ever tears a character.
	for _, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk))
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 4)
	}

	runes := []rune(chunks[0])
	for _, chunk := range chunks[1:] {
		runes = append(runes, []rune(chunk)[1:]...)
	}
	assert.Equal(t, text, string(runes))
}

func TestRecords(t *testing.T) {
	ch := chunker.NewWithConfig(chunker.ChunkerConfig{
		ChunkSize:    500,
		ChunkOverlap: 50,
	})

	doc := models.BillDocument{
		ID:         "doc1",
		SourceFile: "SB1.pdf",
		Text:       strings.Repeat("a", 1200),
		Metadata: models.BillMetadata{
			DateFiled: "2025-01-15",
			Subtitle:  "AN ACT CONCERNING TESTS",
			Sponsor:   "Senator Example",
		},
	}

	records := ch.Records(doc)
	require.Len(t, records, 3)

	for i, r := range records {
		assert.Equal(t, i, r.ChunkIndex)
		assert.Equal(t, len(r.Chunk), r.ChunkLength)
		assert.Equal(t, "SB1.pdf", r.SourceFile)
		assert.Equal(t, doc.Metadata.DateFiled, r.DateFiled)
		assert.Equal(t, doc.Metadata.Subtitle, r.Subtitle)
		assert.Equal(t, doc.Metadata.Sponsor, r.Sponsor)
		assert.False(t, r.Timestamp.IsZero())
		assert.Greater(t, r.ChunkLength, 0)
	}

	// All chunks of one document share a single processing timestamp.
	assert.Equal(t, records[0].Timestamp, records[1].Timestamp)
}

func TestRecordsEmptyText(t *testing.T) {
	ch := chunker.NewWithConfig(chunker.ChunkerConfig{
		ChunkSize:    500,
		ChunkOverlap: 50,
	})

	records := ch.Records(models.BillDocument{SourceFile: "HB1.pdf"})
	assert.Empty(t, records)
}
