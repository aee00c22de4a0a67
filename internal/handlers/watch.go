package handlers

import (
	"net/http"

	"personal-kb/internal/contextutil"
	"personal-kb/internal/watcher"
)

// WatchHandler controls the folder watcher.
type WatchHandler struct {
	watcher FolderWatcher
}

// NewWatchHandler creates a new WatchHandler.
func NewWatchHandler(w FolderWatcher) *WatchHandler {
	return &WatchHandler{watcher: w}
}

// StartResponse reports the outcome of a start request.
type StartResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	WatchFolder string `json:"watch_folder"`
}

// StatusResponse wraps a watcher snapshot.
type StatusResponse struct {
	Success bool           `json:"success"`
	Status  watcher.Status `json:"status"`
}

// RescanResponse reports a completed rescan.
type RescanResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Result  watcher.ScanResult `json:"result"`
}

// Start handles POST /folder-watch/start. The initial scan runs before the response.
func (h *WatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	started, err := h.watcher.Start(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to start folder watcher", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to start folder watcher")
		return
	}

	msg := "Folder watcher started"
	if !started {
		msg = "Folder watcher already running"
	}
	writeJSON(w, r, http.StatusOK, StartResponse{
		Success:     true,
		Message:     msg,
		WatchFolder: h.watcher.Status().WatchPath,
	})
}

// Stop handles POST /folder-watch/stop.
func (h *WatchHandler) Stop(w http.ResponseWriter, r *http.Request) {
	msg := "Folder watcher stopped"
	if !h.watcher.Stop(r.Context()) {
		msg = "Folder watcher was not running"
	}
	writeJSON(w, r, http.StatusOK, MessageResponse{Success: true, Message: msg})
}

// Status handles GET /folder-watch/status.
func (h *WatchHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, StatusResponse{Success: true, Status: h.watcher.Status()})
}

// Rescan handles POST /folder-watch/rescan.
func (h *WatchHandler) Rescan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := h.watcher.ForceRescan(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "rescan failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Rescan failed")
		return
	}
	writeJSON(w, r, http.StatusOK, RescanResponse{Success: true, Message: "Rescan complete", Result: res})
}
