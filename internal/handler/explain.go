// Package handler contains the HTTP handlers: JSON endpoints under /api,
// the OAuth redirects under /auth and the server-rendered pages.
//
// Handlers parse the request, call one service method and write the
// response. Status codes are decided in response.go from the apperror
// sentinel the service returned.
package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/auth"
	"github.com/sakif/repo-explainer/internal/model"
	"github.com/sakif/repo-explainer/internal/service"
)

type ExplainHandler struct {
	explain *service.ExplainService
	logger  *zap.Logger
}

func NewExplainHandler(explain *service.ExplainService, logger *zap.Logger) *ExplainHandler {
	return &ExplainHandler{explain: explain, logger: logger}
}

type explainRequest struct {
	RepoURL string `json:"repoUrl"`
}

type explainResponse struct {
	Explanation string             `json:"explanation"`
	Metadata    model.RepoMetadata `json:"metadata"`
}

// HandleExplain answers POST /api/explain.
//
// Signed-in callers get the result saved to their history; anonymous
// callers get the same answer without the save.
func (h *ExplainHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := decodeJSON(w, r, &req, "Repo URL is required"); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.explain.Explain(r.Context(), req.RepoURL, ownerKey(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, explainResponse{
		Explanation: res.Explanation.Text,
		Metadata:    res.Metadata,
	})
}

// ownerKey is the history key of the signed-in caller, or "".
func ownerKey(r *http.Request) string {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return ""
	}
	return id.Key()
}
