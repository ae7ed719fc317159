package chunker

import (
	"time"
	"unicode/utf8"

	"github.com/arlegis/billbot/internal/models"
)

type ChunkerConfig struct {
	ChunkSize    int // characters per chunk
	ChunkOverlap int // characters shared between adjacent chunks
}

type Chunker struct {
	config ChunkerConfig
}

func NewWithConfig(config ChunkerConfig) Chunker {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 2000
	}
	if config.ChunkOverlap <= 0 {
		config.ChunkOverlap = 300
	}
	if config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 4
	}

	return Chunker{
		config: config,
	}
}

// Split cuts text into fixed-size windows that advance by
// ChunkSize-ChunkOverlap, so each chunk after the first repeats the last
// ChunkOverlap characters of its predecessor. The final chunk may be
// shorter. Empty text yields no chunks.
//
// Sizes are measured in runes, not bytes, so a window boundary can never
// land inside a multi-byte character.
func (c *Chunker) Split(text string) []string {
	if len(text) == 0 {
		return nil
	}

	runes := []rune(text)
	step := c.config.ChunkSize - c.config.ChunkOverlap
	chunks := make([]string, 0, len(runes)/step+1)

	for pos := 0; ; pos += step {
		end := pos + c.config.ChunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[pos:]))
			break
		}
		chunks = append(chunks, string(runes[pos:end]))
	}

	return chunks
}

// Records splits a bill's text and wraps every piece in a ChunkRecord
// carrying the parent document's metadata, a sequential 0-based index, and
// a shared processing timestamp.
func (c *Chunker) Records(doc models.BillDocument) []models.ChunkRecord {
	pieces := c.Split(doc.Text)
	now := time.Now().UTC()

	records := make([]models.ChunkRecord, 0, len(pieces))
	for i, piece := range pieces {
		records = append(records, models.ChunkRecord{
			Chunk:       piece,
			ChunkIndex:  i,
			SourceFile:  doc.SourceFile,
			ChunkLength: utf8.RuneCountInString(piece),
			Timestamp:   now,
			DateFiled:   doc.Metadata.DateFiled,
			Subtitle:    doc.Metadata.Subtitle,
			Sponsor:     doc.Metadata.Sponsor,
		})
	}

	return records
}
