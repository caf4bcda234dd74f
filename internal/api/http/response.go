package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"stockledger-backend/internal/domain"
	"stockledger-backend/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps ledger error kinds to HTTP statuses. Infrastructure errors
// are logged and replaced with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
