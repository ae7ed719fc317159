package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	sf "github.com/snowflakedb/gosnowflake"

	"github.com/arlegis/billbot/internal/models"
)

type WarehouseConfig struct {
	Account   string
	User      string
	Password  string
	Role      string
	Warehouse string
	Database  string
	Schema    string

	TableName     string
	SearchService string
	SearchLimit   int
}

// Warehouse is the hosted chunk backend: a Snowflake table indexed by a
// Cortex search service, with generation through Cortex Complete. Indexing
// and ranking happen entirely server-side.
type Warehouse struct {
	config WarehouseConfig
	db     *sql.DB
}

func NewWithConfig(config WarehouseConfig) (*Warehouse, error) {
	if config.TableName == "" {
		config.TableName = "BILL_CHUNKS"
	}
	if config.SearchService == "" {
		config.SearchService = "bill_search_service"
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}

	dsn, err := buildDSN(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build snowflake DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	w := &Warehouse{
		config: config,
		db:     db,
	}

	if err := w.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

func buildDSN(config WarehouseConfig) (string, error) {
	return sf.DSN(&sf.Config{
		Account:   config.Account,
		User:      config.User,
		Password:  config.Password,
		Role:      config.Role,
		Warehouse: config.Warehouse,
		Database:  config.Database,
		Schema:    config.Schema,
	})
}

func (w *Warehouse) initialize() error {
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			chunk STRING,
			chunk_index INTEGER,
			source_file STRING,
			chunk_length INTEGER,
			timestamp TIMESTAMP_NTZ,
			date_filed STRING,
			bill_subtitle STRING,
			bill_sponsor STRING
		)`, w.config.TableName)

	if _, err := w.db.Exec(createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// Store appends chunk records to the bill table. The Cortex search service
// picks up new rows on its own refresh schedule.
func (w *Warehouse) Store(ctx context.Context, records []models.ChunkRecord) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(`
		INSERT INTO %s (chunk, chunk_index, source_file, chunk_length,
			timestamp, date_filed, bill_subtitle, bill_sponsor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.config.TableName)

	for _, r := range records {
		_, err := tx.ExecContext(ctx, stmt,
			r.Chunk,
			r.ChunkIndex,
			r.SourceFile,
			r.ChunkLength,
			r.Timestamp,
			r.DateFiled,
			r.Subtitle,
			r.Sponsor,
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Search asks the Cortex search service for the chunks most relevant to
// the question.
func (w *Warehouse) Search(ctx context.Context, query string, limit int) ([]models.ChunkRecord, error) {
	if limit == 0 {
		limit = w.config.SearchLimit
	}

	stmt := fmt.Sprintf(`
		SELECT chunk, chunk_index, source_file, chunk_length,
			timestamp, date_filed, bill_subtitle, bill_sponsor
		FROM %s
		WHERE SEMANTIC_CONTAINS(chunk, ?, '%s')
		LIMIT ?`,
		w.config.TableName, w.config.SearchService)

	rows, err := w.db.QueryContext(ctx, stmt, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
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
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// RecentBills lists the most recently filed bills, one summary per bill.
// Filing dates are stored as YYYY-MM-DD strings, so sorting them sorts
// chronologically; bills whose date could not be extracted come last.
func (w *Warehouse) RecentBills(ctx context.Context, limit int) ([]models.BillSummary, error) {
	stmt := fmt.Sprintf(`
		SELECT source_file, bill_subtitle, bill_sponsor, date_filed
		FROM (
			SELECT DISTINCT source_file, bill_subtitle, bill_sponsor, date_filed
			FROM %s
		)
		ORDER BY NULLIF(date_filed, 'Unknown') DESC NULLS LAST
		LIMIT ?`,
		w.config.TableName)

	rows, err := w.db.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent bills: %w", err)
	}
	defer rows.Close()

	var bills []models.BillSummary
	for rows.Next() {
		var b models.BillSummary
		if err := rows.Scan(&b.SourceFile, &b.Subtitle, &b.Sponsor, &b.DateFiled); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		bills = append(bills, b)
	}

	return bills, rows.Err()
}

// Stats reports how many bills are loaded and the latest filing date.
func (w *Warehouse) Stats(ctx context.Context) (models.BillStats, error) {
	stmt := fmt.Sprintf(`
		SELECT COUNT(DISTINCT source_file),
			COALESCE(MAX(NULLIF(date_filed, 'Unknown')), '')
		FROM %s`,
		w.config.TableName)

	var stats models.BillStats
	err := w.db.QueryRowContext(ctx, stmt).Scan(&stats.TotalBills, &stats.LatestFiledDate)
	if err != nil {
		return stats, fmt.Errorf("failed to query stats: %w", err)
	}

	return stats, nil
}

// Complete generates an answer with the hosted model through Cortex.
func (w *Warehouse) Complete(ctx context.Context, model, prompt string) (string, error) {
	var answer string
	err := w.db.QueryRowContext(ctx,
		"SELECT SNOWFLAKE.CORTEX.COMPLETE(?, ?)", model, prompt).Scan(&answer)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	return answer, nil
}

func (w *Warehouse) Close() {
	if w.db != nil {
		w.db.Close()
	}
}
