package store

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/arlegis/billbot/internal/models"
	"github.com/arlegis/billbot/pkg/llm"
)

type VectorStoreConfig struct {
	ConnString  string
	TableName   string
	VectorDim   int
	BatchSize   int
	SearchLimit int
	Embedder    *llm.Embedder
}

// VectorStore is the local chunk backend: Postgres with pgvector, chunk
// embeddings computed through Ollama.
type VectorStore struct {
	config   VectorStoreConfig
	pool     *pgxpool.Pool
	embedder *llm.Embedder
}

func NewWithConfig(config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "bill_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}

	embedder := config.Embedder
	if embedder == nil {
		var err error
		embedder, err = llm.NewEmbedderWithConfig(llm.EmbedderConfig{})
		if err != nil {
			return nil, err
		}
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	vs := &VectorStore{
		config:   config,
		pool:     pool,
		embedder: embedder,
	}

	if err := vs.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize() error {
	ctx := context.Background()

	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			chunk TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			source_file TEXT NOT NULL,
			chunk_length INTEGER NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			date_filed TEXT,
			bill_subtitle TEXT,
			bill_sponsor TEXT,
			embedding vector(%d)
		)`, vs.config.TableName, vs.config.VectorDim)

	_, err = vs.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)

	_, err = vs.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// Store embeds and upserts chunk records in one transaction. The row key
// is source_file plus chunk_index, so re-ingesting a bill replaces its
// chunks instead of duplicating them.
func (vs *VectorStore) Store(ctx context.Context, records []models.ChunkRecord) error {
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, chunk, chunk_index, source_file, chunk_length,
			timestamp, date_filed, bill_subtitle, bill_sponsor, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			chunk = EXCLUDED.chunk,
			chunk_length = EXCLUDED.chunk_length,
			timestamp = EXCLUDED.timestamp,
			date_filed = EXCLUDED.date_filed,
			bill_subtitle = EXCLUDED.bill_subtitle,
			bill_sponsor = EXCLUDED.bill_sponsor,
			embedding = EXCLUDED.embedding`,
		vs.config.TableName)

	for _, record := range records {
		cleanChunk := sanitizeUTF8(record.Chunk)
		id := fmt.Sprintf("%s_%d", record.SourceFile, record.ChunkIndex)

		embedding, err := vs.embedder.Embed.CreateEmbedding(ctx, []string{cleanChunk})
		if err != nil {
			return fmt.Errorf("failed to create embeddings: %v", err)
		}

		vector := pgvector.NewVector(vs.embedder.FlattenEmbeddings(embedding))

		_, err = tx.Exec(ctx, stmt,
			id,
			cleanChunk,
			record.ChunkIndex,
			record.SourceFile,
			record.ChunkLength,
			record.Timestamp,
			record.DateFiled,
			record.Subtitle,
			record.Sponsor,
			vector,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// Search embeds the question and returns the nearest chunks by cosine
// distance.
func (vs *VectorStore) Search(ctx context.Context, query string, limit int) ([]models.ChunkRecord, error) {
	if limit == 0 {
		limit = vs.config.SearchLimit
	}

	embedding, err := vs.embedder.Embed.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}

	sql := fmt.Sprintf(`
		SELECT chunk, chunk_index, source_file, chunk_length,
			timestamp, date_filed, bill_subtitle, bill_sponsor
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		vs.config.TableName)

	vector := pgvector.NewVector(vs.embedder.FlattenEmbeddings(embedding))
	rows, err := vs.pool.Query(ctx, sql, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %v", err)
	}
	defer rows.Close()

	var records []models.ChunkRecord
	for rows.Next() {
		var r models.ChunkRecord
		err := rows.Scan(
			&r.Chunk,
			&r.ChunkIndex,
			&r.SourceFile,
			&r.ChunkLength,
			&r.Timestamp,
			&r.DateFiled,
			&r.Subtitle,
			&r.Sponsor,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// RecentBills lists the most recently filed bills, one summary per bill.
// Filing dates are stored as YYYY-MM-DD strings, so sorting them sorts
// chronologically; bills whose date could not be extracted come last.
func (vs *VectorStore) RecentBills(ctx context.Context, limit int) ([]models.BillSummary, error) {
	sql := fmt.Sprintf(`
		SELECT source_file, bill_subtitle, bill_sponsor, date_filed
		FROM (
			SELECT DISTINCT source_file, bill_subtitle, bill_sponsor, date_filed
			FROM %s
		) bills
		ORDER BY NULLIF(date_filed, 'Unknown') DESC NULLS LAST
		LIMIT $1`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent bills: %v", err)
	}
	defer rows.Close()

	var bills []models.BillSummary
	for rows.Next() {
		var b models.BillSummary
		if err := rows.Scan(&b.SourceFile, &b.Subtitle, &b.Sponsor, &b.DateFiled); err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		bills = append(bills, b)
	}

	return bills, rows.Err()
}

// Stats reports how many bills are loaded and the latest filing date.
func (vs *VectorStore) Stats(ctx context.Context) (models.BillStats, error) {
	sql := fmt.Sprintf(`
		SELECT COUNT(DISTINCT source_file),
			COALESCE(MAX(NULLIF(date_filed, 'Unknown')), '')
		FROM %s`,
		vs.config.TableName)

	var stats models.BillStats
	err := vs.pool.QueryRow(ctx, sql).Scan(&stats.TotalBills, &stats.LatestFiledDate)
	if err != nil {
		return stats, fmt.Errorf("failed to query stats: %v", err)
	}

	return stats, nil
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

// sanitizeUTF8 drops invalid byte sequences; PDF extraction occasionally
// produces them and Postgres rejects the row otherwise.
func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
