package http

import (
	"encoding/json"
	"net/http"
)

func (s *Server) CreateCuration(w http.ResponseWriter, r *http.Request) {
	var body CreateCurationRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, s.logger, "Invalid JSON body")
		return
	}

	id, err := s.curationService.CreateCuration(r.Context(), body.toDomain())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, s.logger, http.StatusCreated, CreateCurationResponseDTO{ID: id})
}
