package handler

// RESPONSE HELPERS:
// Every JSON endpoint answers through writeJSON / writeError so the error
// body always has the same shape:
//
//	{"error": "Repository not found or it's private."}
//
// Upstream failures that carry a raw answer (the payment provider's body)
// add a "details" field next to it.

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/apperror"
)

// ErrorResponse is the error body returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

var successBody = successResponse{Success: true}

// writeJSON sends data with the given status. Headers go out before the
// body, so nothing may be set after the call.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// statusFor maps the sentinel in err's chain to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error to a status code and body.
//
// Only *apperror.AppError messages reach the client. Anything else is
// logged and answered with a generic 500, since raw errors can carry SQL,
// file paths or upstream URLs.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logger.Error("unhandled error", zap.Error(err))
		writeJSON(w, logger, http.StatusInternalServerError, ErrorResponse{Error: "Server error"})
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Warn("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, logger, status, ErrorResponse{
		Error:   appErr.Message,
		Details: appErr.Detail,
	})
}

// decodeJSON reads a JSON body into v. Any decoding problem is reported
// as a validation error with the given message.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, message string) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return apperror.ValidationFailed("", message)
	}
	return nil
}

const maxBodyBytes = 1 << 20
