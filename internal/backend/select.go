package backend

import (
	"context"
	"fmt"

	"personal-kb/internal/contextutil"
	"personal-kb/internal/llm"
	"personal-kb/internal/vectorstore"
)

// probeText is embedded once at startup to check the embeddings service.
const probeText = "knowledge base probe"

// Collaborators holds the optional external services needed by the vector backend.
// A nil Embedder or Store means the service is not configured.
type Collaborators struct {
	Embedder   llm.Embedder
	Store      vectorstore.VectorStore
	Collection string
	VectorSize int
	CacheSize  int
}

// Select chooses the backend for the process lifetime. The vector backend is used only when both
// collaborators are configured, the collection can be ensured and a probe embedding has the
// configured size. Any other outcome falls back to the lexical backend with a warning.
func Select(ctx context.Context, c *Collaborators) Backend {
	logger := contextutil.LoggerFromContext(ctx)

	if err := probe(ctx, c); err != nil {
		logger.WarnContext(ctx, "vector backend unavailable, using lexical search", "error", err)
		return NewLexical()
	}

	logger.InfoContext(ctx, "using vector backend", "collection", c.Collection, "vector_size", c.VectorSize)
	return NewVector(c.Embedder, c.Store, c.Collection, c.CacheSize)
}

func probe(ctx context.Context, c *Collaborators) error {
	if c == nil || c.Embedder == nil || c.Store == nil {
		return fmt.Errorf("embedding or vector store collaborator not configured")
	}
	if c.Collection == "" || c.VectorSize <= 0 {
		return fmt.Errorf("invalid collection %q or vector size %d", c.Collection, c.VectorSize)
	}

	if err := c.Store.EnsureCollection(ctx, c.Collection, c.VectorSize); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	vectors, err := c.Embedder.EmbedTexts(ctx, []string{probeText})
	if err != nil {
		return fmt.Errorf("probe embedding: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) != c.VectorSize {
		return fmt.Errorf("probe embedding has unexpected shape")
	}
	return nil
}
