package models

import "time"

// BillDocument is the transient result of reading one bill PDF. It is
// never persisted; the ChunkRecords derived from it are.
type BillDocument struct {
	ID         string
	SourceFile string
	Text       string
	Metadata   BillMetadata
}

// BillMetadata holds the fields pattern-matched out of a bill's text.
// A field that could not be matched holds the "Unknown" placeholder.
type BillMetadata struct {
	DateFiled string
	Subtitle  string
	Sponsor   string
}

// ChunkRecord is one row of the BILL_CHUNKS table.
type ChunkRecord struct {
	Chunk       string
	ChunkIndex  int
	SourceFile  string
	ChunkLength int
	Timestamp   time.Time
	DateFiled   string
	Subtitle    string
	Sponsor     string
}

// BillSummary is the per-bill view shown in the recent-bills listing.
type BillSummary struct {
	SourceFile string
	Subtitle   string
	Sponsor    string
	DateFiled  string
}

type BillStats struct {
	TotalBills      int
	LatestFiledDate string
}

type ChatMessage struct {
	Role    string
	Content string
}
