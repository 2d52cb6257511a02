package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/model"
	"github.com/sakif/repo-explainer/internal/service"
)

// HistoryHandler serves /api/search-history. Every route sits behind
// auth.RequireAuth; the service still rejects a missing identity.
type HistoryHandler struct {
	history *service.HistoryService
	logger  *zap.Logger
}

func NewHistoryHandler(history *service.HistoryService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: logger}
}

type historyResponse struct {
	History []model.SearchHistoryEntry `json:"history"`
}

type deleteHistoryRequest struct {
	SearchURL string `json:"searchUrl"`
}

// HandleList answers GET /api/search-history with the newest entries first.
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.List(r.Context(), ownerKey(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, historyResponse{History: entries})
}

// HandleSave answers POST /api/search-history.
func (h *HistoryHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var in service.SaveHistoryInput
	if err := decodeJSON(w, r, &in, "Missing required fields"); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if _, err := h.history.Save(r.Context(), ownerKey(r), in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, successBody)
}

// HandleDelete answers DELETE /api/search-history. A searchUrl of "all"
// clears the caller's history.
func (h *HistoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteHistoryRequest
	if err := decodeJSON(w, r, &req, "Invalid request"); err != nil {
		writeError(w, h.logger, err)
		return
	}
	n, err := h.history.Delete(r.Context(), ownerKey(r), req.SearchURL)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Debug("search history deleted", zap.Int64("rows", n))
	writeJSON(w, h.logger, http.StatusOK, successBody)
}

// HandleDeleteByID answers DELETE /api/search-history/{id}.
func (h *HistoryHandler) HandleDeleteByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.history.DeleteByID(r.Context(), ownerKey(r), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, successBody)
}
