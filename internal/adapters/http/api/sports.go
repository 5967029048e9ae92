package api

import (
	"net/http"
	"strings"

	"github.com/flencrypto/cfs-platform/internal/domain/model"
	"github.com/flencrypto/cfs-platform/internal/domain/types"
)

// handleListSports handles GET /api/sports. Only active=true narrows the
// catalog; any other value lists every sport.
func (s *Server) handleListSports(w http.ResponseWriter, r *http.Request) {
	activeOnly := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("active")), "true")
	sports, src, err := s.deps.ListSports(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err, sportsFailure)
		return
	}
	if sports == nil {
		sports = []model.Sport{}
	}
	markSource(w, src)
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Data: sports})
}
