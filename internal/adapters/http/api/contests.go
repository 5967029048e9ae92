package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flencrypto/cfs-platform/internal/adapters/auth"
	"github.com/flencrypto/cfs-platform/internal/domain/apperr"
	"github.com/flencrypto/cfs-platform/internal/domain/model"
	"github.com/flencrypto/cfs-platform/internal/domain/types"
	"github.com/flencrypto/cfs-platform/internal/domain/validation"
	"github.com/flencrypto/cfs-platform/pkg/metrics"
)

// actor returns the authenticated caller or the zero actor.
func actor(r *http.Request) model.Actor {
	a, _ := auth.ActorFrom(r.Context())
	return a
}

// reject records a validation rejection and renders it.
func reject(w http.ResponseWriter, op string, err error, f failure) {
	metrics.RecordValidationRejection(op)
	writeError(w, err, f)
}

// requireAuth short-circuits anonymous writes before the body is read.
func requireAuth(w http.ResponseWriter, r *http.Request, f failure) bool {
	if actor(r).ID == "" {
		writeError(w, apperr.Unauthorized, f)
		return false
	}
	return true
}

// handleListContests handles GET /api/contests.
func (s *Server) handleListContests(w http.ResponseWriter, r *http.Request) {
	filter, rej := validation.ListQuery(r.URL.Query())
	if rej != nil {
		reject(w, rej.Op, rej.Err(), contestListFailure)
		return
	}
	page, src, err := s.deps.ListContests(r.Context(), filter)
	if err != nil {
		writeError(w, err, contestListFailure)
		return
	}
	items := page.Items
	if items == nil {
		items = []model.Contest{}
	}
	markSource(w, src)
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Data: items, Pagination: &page.Pagination})
}

// handleGetContest handles GET /api/contests/{id}.
func (s *Server) handleGetContest(w http.ResponseWriter, r *http.Request) {
	c, src, err := s.deps.GetContest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, contestGetFailure)
		return
	}
	markSource(w, src)
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Data: c})
}

// handleCreateContest handles POST /api/contests.
func (s *Server) handleCreateContest(w http.ResponseWriter, r *http.Request) {
	const op = "contests.create"
	if !requireAuth(w, r, contestCreateFailure) {
		return
	}
	raw, err := decodeObject(op, w, r)
	if err != nil {
		reject(w, op, err, contestCreateFailure)
		return
	}
	draft, rej := validation.CreateContest(raw)
	if rej != nil {
		reject(w, op, rej.Err(), contestCreateFailure)
		return
	}
	c, err := s.deps.CreateDraft(r.Context(), draft, actor(r))
	if err != nil {
		writeError(w, err, contestCreateFailure)
		return
	}
	writeJSON(w, http.StatusCreated, types.Envelope{Success: true, Data: c})
}

// handleUpdateContest handles PATCH /api/contests/{id}.
func (s *Server) handleUpdateContest(w http.ResponseWriter, r *http.Request) {
	const op = "contests.update"
	if !requireAuth(w, r, contestUpdateFailure) {
		return
	}
	raw, err := decodeObject(op, w, r)
	if err != nil {
		reject(w, op, err, contestUpdateFailure)
		return
	}
	patch, rej := validation.UpdateContest(raw)
	if rej != nil {
		reject(w, op, rej.Err(), contestUpdateFailure)
		return
	}
	c, err := s.deps.UpdateContest(r.Context(), chi.URLParam(r, "id"), patch, actor(r))
	if err != nil {
		writeError(w, err, contestUpdateFailure)
		return
	}
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Data: c})
}

// handleTransitionContest handles POST /api/contests/{id}/transitions with a
// body of {"status": "<target>"}.
func (s *Server) handleTransitionContest(w http.ResponseWriter, r *http.Request) {
	const op = "contests.transition"
	if !requireAuth(w, r, contestUpdateFailure) {
		return
	}
	raw, err := decodeObject(op, w, r)
	if err != nil {
		reject(w, op, err, contestUpdateFailure)
		return
	}
	value, _ := raw["status"].(string)
	target, ok := model.ParseStatus(value)
	if !ok {
		issue := apperr.FieldIssue{Field: "status", Rule: "oneof", Message: "must be one of DRAFT ACTIVE LOCKED SETTLED CANCELLED"}
		if value == "" {
			issue.Rule, issue.Message = "required", "status is required"
		}
		reject(w, op, apperr.Invalid(op, []apperr.FieldIssue{issue}), contestUpdateFailure)
		return
	}
	c, err := s.deps.TransitionContest(r.Context(), chi.URLParam(r, "id"), target, actor(r))
	if err != nil {
		writeError(w, err, contestUpdateFailure)
		return
	}
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Data: c})
}

// handleDeleteContest handles DELETE /api/contests/{id}.
func (s *Server) handleDeleteContest(w http.ResponseWriter, r *http.Request) {
	if !requireAuth(w, r, contestDeleteFailure) {
		return
	}
	if err := s.deps.DeleteContest(r.Context(), chi.URLParam(r, "id"), actor(r)); err != nil {
		writeError(w, err, contestDeleteFailure)
		return
	}
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Message: msgDeleted})
}
