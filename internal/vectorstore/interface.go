package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks personal-kb/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
// Distance is the cosine distance between the query and the point (0 = identical direction).
type SearchResult struct {
	PointID  string
	Distance float32
	Meta     map[string]any
}

// Record is a stored point returned by metadata lookups, without its vector.
type Record struct {
	PointID string
	Meta    map[string]any
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// EnsureCollection creates the collection if missing and validates its vector size.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the k nearest points by cosine distance, with optional exact-match filters.
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)

	// Get returns every point whose metadata matches all filters. Nil filters match all points.
	Get(ctx context.Context, collection string, filters map[string]any) ([]Record, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// Count returns the exact number of points in the collection.
	Count(ctx context.Context, collection string) (int, error)
}
