package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"curationsapi/src/domain"
)

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to write JSON response", "error", err)
	}
}

// writeError traduz os erros de domínio para status HTTP. Erros inesperados não vazam detalhes.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, logger, http.StatusBadRequest, ErrorResponseDTO{Error: validationErr.Message, Field: validationErr.Field})
		return
	}

	var notFoundErr *domain.NotFoundError
	if errors.As(err, &notFoundErr) {
		writeJSON(w, logger, http.StatusNotFound, ErrorResponseDTO{Error: notFoundErr.Error()})
		return
	}

	logger.Error("Request failed", "error", err)
	writeJSON(w, logger, http.StatusInternalServerError, ErrorResponseDTO{Error: domain.ErrUnavailableServer.Error()})
}

func badRequest(w http.ResponseWriter, logger *slog.Logger, message string) {
	writeJSON(w, logger, http.StatusBadRequest, ErrorResponseDTO{Error: message})
}
