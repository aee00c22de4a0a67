package handlers

import (
	"context"
	"net/http"
	"time"

	"personal-kb/internal/backend"
	"personal-kb/internal/contextutil"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	store              KnowledgeStore
	watcher            FolderWatcher
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(store KnowledgeStore, w FolderWatcher) *HealthHandler {
	return &HealthHandler{
		store:              store,
		watcher:            w,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Active index backend: "lexical" or "vector"
	Mode backend.Mode `json:"mode"`

	// Whether the folder watcher loop is running
	Watching bool `json:"watching"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
// Returns 200 OK if the index answers, 503 Service Unavailable otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if _, err := h.store.Stats(checkCtx); err != nil {
		logger.WarnContext(ctx, "index health check failed", "error", err)
		checks["index"] = "error"
		issues = append(issues, "index_unavailable")
	} else {
		checks["index"] = "ok"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, r, httpStatus, HealthResponse{
		Status:    status,
		Mode:      h.store.Mode(),
		Watching:  h.watcher.Status().Running,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}
