package ingest

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/arlegis/billbot/internal/models"
	"github.com/arlegis/billbot/internal/types"
	"github.com/arlegis/billbot/pkg/chunker"
	"github.com/arlegis/billbot/pkg/metadata"
	"github.com/arlegis/billbot/pkg/pdfreader"
)

type IngestorConfig struct {
	BillsDir     string
	CSVDir       string // when set, chunk records are also written out as one CSV per bill
	ChunkSize    int
	ChunkOverlap int
	Extractor    types.Extractor // defaults to the PDF reader
	OnProgress   func(file string)
}

// Ingestor walks a directory of bill PDFs and turns each into chunk
// records ready for storage. One bad file does not abort the batch.
type Ingestor struct {
	config  IngestorConfig
	chunker chunker.Chunker
}

func NewWithConfig(config IngestorConfig) *Ingestor {
	if config.Extractor == nil {
		config.Extractor = pdfreader.New()
	}

	return &Ingestor{
		config: config,
		chunker: chunker.NewWithConfig(chunker.ChunkerConfig{
			ChunkSize:    config.ChunkSize,
			ChunkOverlap: config.ChunkOverlap,
		}),
	}
}

// Run processes every *.pdf under BillsDir in order and returns the chunk
// records of the files that could be read. Per-file failures are logged
// and skipped.
func (in *Ingestor) Run(ctx context.Context) ([]models.ChunkRecord, error) {
	entries, err := os.ReadDir(in.config.BillsDir)
	if err != nil {
		return nil, err
	}

	var records []models.ChunkRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return records, err
		}

		chunks, err := in.processFile(entry.Name())
		if err != nil {
			log.Printf("skipping %s: %v", entry.Name(), err)
			continue
		}
		records = append(records, chunks...)

		if in.config.OnProgress != nil {
			in.config.OnProgress(entry.Name())
		}
	}

	return records, nil
}

func (in *Ingestor) processFile(name string) ([]models.ChunkRecord, error) {
	path := filepath.Join(in.config.BillsDir, name)

	text, err := in.config.Extractor.ExtractText(path)
	if err != nil {
		return nil, err
	}

	doc := models.BillDocument{
		ID:         uuid.NewString(),
		SourceFile: name,
		Text:       text,
		Metadata:   metadata.Extract(name, text),
	}

	chunks := in.chunker.Records(doc)
	log.Printf("processed %s (doc %s): %d chunks", name, doc.ID, len(chunks))

	if in.config.CSVDir != "" {
		if err := writeCSV(in.config.CSVDir, name, chunks); err != nil {
			log.Printf("csv export for %s failed: %v", name, err)
		}
	}

	return chunks, nil
}
