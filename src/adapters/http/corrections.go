package http

import (
	"encoding/json"
	"net/http"

	"curationsapi/src/services/ledger"
)

func (s *Server) AppendCorrection(w http.ResponseWriter, r *http.Request) {
	var correction ledger.LegacyCorrection
	if err := json.NewDecoder(r.Body).Decode(&correction); err != nil {
		s.logger.Warn("No JSON data provided in request")
		badRequest(w, s.logger, "No JSON data provided")
		return
	}

	if err := s.ledgerService.AppendCorrection(r.Context(), correction); err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, s.logger, http.StatusCreated, map[string]string{"status": "success"})
}

func (s *Server) PendingCorrections(w http.ResponseWriter, r *http.Request) {
	pending, err := s.ledgerService.Pending(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, s.logger, http.StatusOK, PendingResponseDTO{Count: len(pending), Results: pending})
}
