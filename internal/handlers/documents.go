package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"personal-kb/internal/backend"
	"personal-kb/internal/contextutil"
)

// DocumentsHandler serves the document list and document deletion.
type DocumentsHandler struct {
	store KnowledgeStore
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(store KnowledgeStore) *DocumentsHandler {
	return &DocumentsHandler{store: store}
}

// DocumentsResponse lists the indexed documents.
type DocumentsResponse struct {
	Success   bool                      `json:"success"`
	Documents []backend.DocumentSummary `json:"documents"`
}

// MessageResponse acknowledges an action.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// List handles GET /documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	docs, err := h.store.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list documents", "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	if docs == nil {
		docs = []backend.DocumentSummary{}
	}
	writeJSON(w, r, http.StatusOK, DocumentsResponse{Success: true, Documents: docs})
}

// Delete handles DELETE /documents/{id}. An unknown id is answered with 404.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	id := chi.URLParam(r, "id")

	removed, err := h.store.Delete(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete document", "document_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Failed to delete document")
		return
	}
	if !removed {
		writeError(w, r, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, r, http.StatusOK, MessageResponse{Success: true, Message: "Document deleted"})
}
