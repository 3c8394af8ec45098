package http

import "net/http"

func (s *Server) GetCuration(w http.ResponseWriter, r *http.Request) {
	id, ok := s.curationIDFromPath(w, r)
	if !ok {
		return
	}

	curation, err := s.curationService.GetCuration(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, s.logger, http.StatusOK, mapCurationToResponse(*curation))
}
