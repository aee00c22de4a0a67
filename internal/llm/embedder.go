package llm

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks personal-kb/internal/llm Embedder

import (
	"context"
	"errors"
)

// ErrEmbedding is returned when the embeddings service cannot produce usable vectors.
var ErrEmbedding = errors.New("embedding failed")

// Embedder turns texts into fixed-size vectors, one per input text, in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
