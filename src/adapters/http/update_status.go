package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"curationsapi/src/domain"
	"curationsapi/src/domain/entities"

	"github.com/go-chi/chi/v5"
)

func (s *Server) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.curationIDFromPath(w, r)
	if !ok {
		return
	}

	var body UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, s.logger, "Invalid JSON body")
		return
	}

	curation, err := s.curationService.UpdateStatus(r.Context(), id, domain.UpdateStatusRequest{
		Status:         entities.CurationStatus(strings.TrimSpace(body.Status)),
		ModeratorEmail: body.ModeratorEmail,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, s.logger, http.StatusOK, mapCurationToResponse(*curation))
}

func (s *Server) curationIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, s.logger, "Invalid curation ID format")
		return 0, false
	}
	return id, true
}
