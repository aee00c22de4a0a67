package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"personal-kb/internal/backend"
	"personal-kb/internal/contextutil"
)

// SearchHandler handles GET /search?q=&limit=.
type SearchHandler struct {
	store KnowledgeStore
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(store KnowledgeStore) *SearchHandler {
	return &SearchHandler{store: store}
}

// SearchResponse carries ranked chunks for a query.
type SearchResponse struct {
	Success bool             `json:"success"`
	Query   string           `json:"query"`
	Results []backend.Result `json:"results"`
}

// ServeHTTP handles HTTP requests for searches.
// A missing limit uses the store's default.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, r, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	results, err := h.store.Search(ctx, query, limit)
	if err != nil {
		logger.ErrorContext(ctx, "search failed", "query", query, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Search failed")
		return
	}

	logger.DebugContext(ctx, "search completed", "query", query, "results", len(results))
	writeJSON(w, r, http.StatusOK, SearchResponse{Success: true, Query: query, Results: results})
}
