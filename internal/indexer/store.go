package indexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"personal-kb/internal/backend"
	"personal-kb/internal/contextutil"
)

// DefaultTopK is the number of search results returned when the caller does not ask for a count.
const DefaultTopK = 5

// Extractor turns a file into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

// Options tunes chunking and search.
type Options struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

// DefaultOptions returns the default chunking and search settings.
func DefaultOptions() Options {
	return Options{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		TopK:         DefaultTopK,
	}
}

// Store ingests files into the active index backend and answers queries over it.
// It is safe for concurrent use when the backend is.
type Store struct {
	extractor Extractor
	backend   backend.Backend
	opts      Options
}

// NewStore creates a knowledge store over the given backend.
// A non-positive chunk size or topK selects the default; an overlap outside [0, size) becomes 0.
func NewStore(extractor Extractor, b backend.Backend, opts Options) *Store {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = 0
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Store{
		extractor: extractor,
		backend:   b,
		opts:      opts,
	}
}

// Mode reports the active backend variant.
func (s *Store) Mode() backend.Mode {
	return s.backend.Mode()
}

// Add extracts, chunks and indexes a file as a new document and returns its id.
// Failures are returned as *IngestionError.
func (s *Store) Add(ctx context.Context, filePath, filename string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	text, err := s.extractor.Extract(filePath)
	if err != nil {
		return "", &IngestionError{Path: filePath, Err: err}
	}

	chunks := SplitText(text, s.opts.ChunkSize, s.opts.ChunkOverlap)
	documentID := uuid.New().String()

	if err := s.backend.Put(ctx, documentID, filename, chunks); err != nil {
		return "", &IngestionError{Path: filePath, Err: err}
	}

	logger.InfoContext(ctx, "document added",
		"path", filePath,
		"document_id", documentID,
		"chunks", len(chunks),
	)
	return documentID, nil
}

// Search returns up to topK chunks matching query. A blank query returns no results and a
// non-positive topK uses the configured default.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]backend.Result, error) {
	if strings.TrimSpace(query) == "" {
		return []backend.Result{}, nil
	}
	if topK <= 0 {
		topK = s.opts.TopK
	}

	results, err := s.backend.Query(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if results == nil {
		results = []backend.Result{}
	}
	return results, nil
}

// Delete removes a document. It reports false when the document was not indexed.
func (s *Store) Delete(ctx context.Context, documentID string) (bool, error) {
	removed, err := s.backend.Remove(ctx, documentID)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", documentID, err)
	}
	if removed {
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "document deleted", "document_id", documentID)
	}
	return removed, nil
}

// List returns one summary per indexed document.
func (s *Store) List(ctx context.Context) ([]backend.DocumentSummary, error) {
	docs, err := s.backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Stats returns aggregate index counts.
func (s *Store) Stats(ctx context.Context) (backend.Stats, error) {
	stats, err := s.backend.Stats(ctx)
	if err != nil {
		return backend.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}
