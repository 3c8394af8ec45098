package http

import "net/http"

func (s *Server) PendingSummary(w http.ResponseWriter, r *http.Request) {
	keys, err := s.curationService.PendingSummary(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, s.logger, http.StatusOK, PendingResponseDTO{Count: len(keys), Results: keys})
}
