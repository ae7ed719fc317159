package types

import (
	"context"

	"github.com/arlegis/billbot/internal/models"
)

// Core interfaces

// Extractor turns a PDF file into plain text.
type Extractor interface {
	ExtractText(path string) (string, error)
}

// ChunkStore persists chunk records and retrieves the ones relevant to a
// question. Both backends (Snowflake Cortex and local pgvector) satisfy it.
type ChunkStore interface {
	Store(ctx context.Context, records []models.ChunkRecord) error
	Search(ctx context.Context, query string, limit int) ([]models.ChunkRecord, error)
	RecentBills(ctx context.Context, limit int) ([]models.BillSummary, error)
	Stats(ctx context.Context) (models.BillStats, error)
	Close()
}

// Completer generates an answer from a finished prompt.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}
