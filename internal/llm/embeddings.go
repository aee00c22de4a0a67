package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"personal-kb/internal/contextutil"
)

// defaultTimeout bounds a single embeddings request.
const defaultTimeout = 60 * time.Second

// EmbeddingsClient calls an OpenAI-compatible /v1/embeddings endpoint.
type EmbeddingsClient struct {
	BaseURL      string
	APIKey       string
	Model        string
	ExpectedSize int // Expected vector size for validation
	client       *http.Client
}

var _ Embedder = (*EmbeddingsClient)(nil)

// NewEmbeddingsClient creates a new embeddings client.
// expectedSize is the configured vector size (QDRANT_VECTOR_SIZE); every vector returned by
// EmbedTexts is validated against it.
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize int) *EmbeddingsClient {
	return &EmbeddingsClient{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		APIKey:       apiKey,
		Model:        model,
		ExpectedSize: expectedSize,
		client:       &http.Client{Timeout: defaultTimeout},
	}
}

// EmbeddingsRequest represents the request payload for embeddings API.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData represents a single embedding in the response.
type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// EmbedTexts generates one embedding per text, in input order.
// All failures wrap ErrEmbedding.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: empty input array", ErrEmbedding)
	}

	body, err := json.Marshal(EmbeddingsRequest{
		Model: c.Model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrEmbedding, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrEmbedding, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %v", ErrEmbedding, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: bad status %d: %s", ErrEmbedding, resp.StatusCode, string(raw))
	}

	var embeddingsResp EmbeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingsResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrEmbedding, err)
	}

	if len(embeddingsResp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbedding, len(texts), len(embeddingsResp.Data))
	}

	// The API may return items out of order; place each by its index when the indexes are valid.
	ordered := embeddingsResp.Data
	if hasValidIndexes(ordered) {
		ordered = make([]EmbeddingData, len(embeddingsResp.Data))
		for _, d := range embeddingsResp.Data {
			ordered[d.Index] = d
		}
	}

	result := make([][]float32, len(ordered))
	for i, data := range ordered {
		if len(data.Embedding) != c.ExpectedSize {
			return nil, fmt.Errorf("%w: embedding %d has size %d, expected %d", ErrEmbedding, i, len(data.Embedding), c.ExpectedSize)
		}

		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		result[i] = vec
	}

	logger.DebugContext(ctx, "embedded texts", "count", len(texts), "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// hasValidIndexes reports whether the indexes form a permutation of 0..len-1.
func hasValidIndexes(data []EmbeddingData) bool {
	seen := make([]bool, len(data))
	for _, d := range data {
		if d.Index < 0 || d.Index >= len(data) || seen[d.Index] {
			return false
		}
		seen[d.Index] = true
	}
	return true
}
