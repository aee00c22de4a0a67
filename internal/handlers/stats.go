package handlers

import (
	"net/http"

	"personal-kb/internal/backend"
	"personal-kb/internal/contextutil"
)

// StatsHandler handles GET /stats.
type StatsHandler struct {
	store KnowledgeStore
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(store KnowledgeStore) *StatsHandler {
	return &StatsHandler{store: store}
}

// StatsResponse wraps the index statistics.
type StatsResponse struct {
	Success bool          `json:"success"`
	Stats   backend.Stats `json:"stats"`
}

// ServeHTTP handles HTTP requests for index statistics.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.store.Stats(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to get stats", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to get stats")
		return
	}
	if stats.Documents == nil {
		stats.Documents = []backend.DocumentSummary{}
	}
	writeJSON(w, r, http.StatusOK, StatsResponse{Success: true, Stats: stats})
}
