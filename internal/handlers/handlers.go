package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"personal-kb/internal/backend"
	"personal-kb/internal/contextutil"
	"personal-kb/internal/watcher"
)

// KnowledgeStore is the knowledge store surface exposed over HTTP.
type KnowledgeStore interface {
	Mode() backend.Mode
	Search(ctx context.Context, query string, topK int) ([]backend.Result, error)
	Delete(ctx context.Context, documentID string) (bool, error)
	List(ctx context.Context) ([]backend.DocumentSummary, error)
	Stats(ctx context.Context) (backend.Stats, error)
}

// FolderWatcher is the reconciler surface exposed over HTTP.
type FolderWatcher interface {
	Start(ctx context.Context) (bool, error)
	Stop(ctx context.Context) bool
	Status() watcher.Status
	ForceRescan(ctx context.Context) (watcher.ScanResult, error)
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctx := r.Context()
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, ErrorResponse{Error: message})
}
