package api

import (
	"net/http"

	"github.com/flencrypto/cfs-platform/internal/domain/types"
	"github.com/flencrypto/cfs-platform/internal/domain/validation"
)

// handleGetProfile handles GET /api/me.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, src, err := s.deps.GetProfile(r.Context(), actor(r))
	if err != nil {
		writeError(w, err, profileGetFailure)
		return
	}
	markSource(w, src)
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Data: u})
}

// handleUpdateProfile handles PATCH /api/me.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	const op = "profile.update"
	if !requireAuth(w, r, profileUpdateFailure) {
		return
	}
	raw, err := decodeObject(op, w, r)
	if err != nil {
		reject(w, op, err, profileUpdateFailure)
		return
	}
	update, rej := validation.UpdateProfile(raw)
	if rej != nil {
		reject(w, op, rej.Err(), profileUpdateFailure)
		return
	}
	u, err := s.deps.UpdateProfile(r.Context(), update, actor(r))
	if err != nil {
		writeError(w, err, profileUpdateFailure)
		return
	}
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Data: u})
}
