// Package backend holds the two index backends behind the knowledge store: an in-memory lexical
// index and an embedding-based vector index.
package backend

import (
	"context"
	"errors"
)

// ErrBackend wraps every failure reported by an index backend.
var ErrBackend = errors.New("index backend failure")

// Mode identifies the active backend variant.
type Mode string

const (
	ModeLexical Mode = "lexical"
	ModeVector  Mode = "vector"
)

// Metadata describes where a chunk came from.
type Metadata struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
	ChunkCount int    `json:"chunk_count"`
}

// Result is one ranked query hit.
type Result struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	Score    float64  `json:"score"`
}

// DocumentSummary is one indexed document.
type DocumentSummary struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
}

// Stats aggregates the index contents.
type Stats struct {
	TotalChunks    int               `json:"total_chunks"`
	TotalDocuments int               `json:"total_documents"`
	Documents      []DocumentSummary `json:"documents"`
}

// Backend stores document chunks and answers queries over them.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Mode reports which variant this is.
	Mode() Mode

	// Put indexes the full chunk set of one document.
	Put(ctx context.Context, documentID, filename string, chunks []string) error

	// Query returns at most topK results ordered by descending score.
	Query(ctx context.Context, text string, topK int) ([]Result, error)

	// Remove deletes every chunk of the document. It reports false when nothing matched.
	Remove(ctx context.Context, documentID string) (bool, error)

	// List returns one summary per indexed document.
	List(ctx context.Context) ([]DocumentSummary, error)

	// Stats returns aggregate counts.
	Stats(ctx context.Context) (Stats, error)
}
