package ingest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/arlegis/billbot/internal/models"
)

var csvHeader = []string{
	"chunk", "chunk_index", "source_file", "chunk_length",
	"timestamp", "date_filed", "bill_subtitle", "bill_sponsor",
}

// writeCSV mirrors the chunk records of one bill into <csvDir>/<bill>.csv,
// one row per chunk, with the same columns as the BILL_CHUNKS table.
func writeCSV(csvDir, sourceFile string, records []models.ChunkRecord) error {
	if err := os.MkdirAll(csvDir, 0o755); err != nil {
		return err
	}

	name := strings.TrimSuffix(sourceFile, filepath.Ext(sourceFile)) + ".csv"
	f, err := os.Create(filepath.Join(csvDir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Chunk,
			strconv.Itoa(r.ChunkIndex),
			r.SourceFile,
			strconv.Itoa(r.ChunkLength),
			r.Timestamp.Format(time.RFC3339),
			r.DateFiled,
			r.Subtitle,
			r.Sponsor,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
