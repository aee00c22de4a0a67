package backend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"personal-kb/internal/contextutil"
	"personal-kb/internal/llm"
	"personal-kb/internal/vectorstore"
)

// Payload keys stored with every vector point.
const (
	payloadChunkID    = "chunk_id"
	payloadDocumentID = "document_id"
	payloadFilename   = "filename"
	payloadChunkIndex = "chunk_index"
	payloadChunkCount = "chunk_count"
	payloadText       = "text"
)

// ChunkID returns the identifier of chunk i of a document.
func ChunkID(documentID string, i int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, i)
}

// pointID maps a chunk id onto a stable UUID, since Qdrant only accepts UUID or integer ids.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

// Vector indexes chunk embeddings in a vector store collection.
type Vector struct {
	embedder   llm.Embedder
	store      vectorstore.VectorStore
	collection string
	cache      *lru.Cache[string, []float32]
}

var _ Backend = (*Vector)(nil)

// NewVector creates a vector backend over an existing collection.
// cacheSize bounds the number of query embeddings kept in memory; zero or less disables caching.
func NewVector(embedder llm.Embedder, store vectorstore.VectorStore, collection string, cacheSize int) *Vector {
	v := &Vector{
		embedder:   embedder,
		store:      store,
		collection: collection,
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, []float32](cacheSize)
		if err == nil {
			v.cache = cache
		}
	}
	return v
}

// Mode implements Backend.
func (v *Vector) Mode() Mode {
	return ModeVector
}

// Put embeds every non-blank chunk and upserts the points in one call. Blank chunks keep
// their index but are not stored, since embedding servers reject empty input.
// A failure can leave some points written; a retried Put overwrites them by id.
func (v *Vector) Put(ctx context.Context, documentID, filename string, chunks []string) error {
	var (
		texts   []string
		indexes []int
	)
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		texts = append(texts, chunk)
		indexes = append(indexes, i)
	}
	if len(texts) == 0 {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "no text to embed", "document_id", documentID, "filename", filename)
		return nil
	}

	vectors, err := v.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed chunks of %s: %v", ErrBackend, filename, err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", ErrBackend, len(vectors), len(texts))
	}

	points := make([]vectorstore.Point, len(texts))
	for j, i := range indexes {
		chunkID := ChunkID(documentID, i)
		points[j] = vectorstore.Point{
			ID:  pointID(chunkID),
			Vec: vectors[j],
			Meta: map[string]any{
				payloadChunkID:    chunkID,
				payloadDocumentID: documentID,
				payloadFilename:   filename,
				payloadChunkIndex: i,
				payloadChunkCount: len(chunks),
				payloadText:       texts[j],
			},
		}
	}

	if err := v.store.Upsert(ctx, v.collection, points); err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrBackend, filename, err)
	}
	return nil
}

// Query embeds text and returns the topK nearest chunks with score 1 - cosine distance.
func (v *Vector) Query(ctx context.Context, text string, topK int) ([]Result, error) {
	results := []Result{}
	if topK <= 0 {
		return results, nil
	}

	vec, err := v.queryVector(ctx, text)
	if err != nil {
		return nil, err
	}

	hits, err := v.store.Search(ctx, v.collection, vec, topK, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrBackend, err)
	}

	for _, hit := range hits {
		results = append(results, Result{
			Content:  stringField(hit.Meta, payloadText),
			Metadata: metadataFromPayload(hit.Meta),
			Score:    1 - float64(hit.Distance),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (v *Vector) queryVector(ctx context.Context, text string) ([]float32, error) {
	if v.cache != nil {
		if vec, ok := v.cache.Get(text); ok {
			return vec, nil
		}
	}

	vectors, err := v.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrBackend, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for one query", ErrBackend, len(vectors))
	}

	if v.cache != nil {
		v.cache.Add(text, vectors[0])
	}
	return vectors[0], nil
}

// Remove deletes all points of the document in one batch.
func (v *Vector) Remove(ctx context.Context, documentID string) (bool, error) {
	records, err := v.store.Get(ctx, v.collection, map[string]any{payloadDocumentID: documentID})
	if err != nil {
		return false, fmt.Errorf("%w: lookup %s: %v", ErrBackend, documentID, err)
	}
	if len(records) == 0 {
		return false, nil
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.PointID
	}
	if err := v.store.Delete(ctx, v.collection, ids); err != nil {
		return false, fmt.Errorf("%w: delete %s: %v", ErrBackend, documentID, err)
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "removed document points", "document_id", documentID, "chunks", len(ids))
	return true, nil
}

// List groups every stored point by document id. The first point seen for a document supplies
// its filename and chunk count.
func (v *Vector) List(ctx context.Context) ([]DocumentSummary, error) {
	records, err := v.store.Get(ctx, v.collection, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrBackend, err)
	}

	docs := []DocumentSummary{}
	seen := make(map[string]struct{})
	for _, r := range records {
		md := metadataFromPayload(r.Meta)
		if md.DocumentID == "" {
			continue
		}
		if _, ok := seen[md.DocumentID]; ok {
			continue
		}
		seen[md.DocumentID] = struct{}{}
		docs = append(docs, DocumentSummary{
			ID:         md.DocumentID,
			Filename:   md.Filename,
			ChunkCount: md.ChunkCount,
		})
	}
	return docs, nil
}

// Stats implements Backend.
func (v *Vector) Stats(ctx context.Context) (Stats, error) {
	total, err := v.store.Count(ctx, v.collection)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: count: %v", ErrBackend, err)
	}
	docs, err := v.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TotalChunks:    total,
		TotalDocuments: len(docs),
		Documents:      docs,
	}, nil
}

func metadataFromPayload(meta map[string]any) Metadata {
	return Metadata{
		DocumentID: stringField(meta, payloadDocumentID),
		Filename:   stringField(meta, payloadFilename),
		ChunkIndex: intField(meta, payloadChunkIndex),
		ChunkCount: intField(meta, payloadChunkCount),
	}
}

func stringField(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}

// intField reads an integer payload value, which may come back as any numeric type.
func intField(meta map[string]any, key string) int {
	switch n := meta[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
