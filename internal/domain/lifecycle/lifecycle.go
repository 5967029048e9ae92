// Package lifecycle holds the contest status machine and the mutation rights
// rules applied before any contest write.
package lifecycle

import (
	"strings"

	"github.com/flencrypto/cfs-platform/internal/domain/apperr"
	"github.com/flencrypto/cfs-platform/internal/domain/model"
)

// transitions lists the legal targets for every non-terminal status.
var transitions = map[model.ContestStatus][]model.ContestStatus{ //nolint:gochecknoglobals // read-only table
	model.StatusDraft:  {model.StatusActive, model.StatusCancelled},
	model.StatusActive: {model.StatusLocked, model.StatusCancelled},
	model.StatusLocked: {model.StatusSettled, model.StatusCancelled},
}

// Terminal reports whether no transition leaves s.
func Terminal(s model.ContestStatus) bool {
	return len(transitions[s]) == 0
}

// Targets returns the statuses reachable from s in one step.
func Targets(s model.ContestStatus) []model.ContestStatus {
	return append([]model.ContestStatus(nil), transitions[s]...)
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to model.ContestStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// CheckTransition returns an InvalidTransition error when from -> to is not legal.
func CheckTransition(op string, from, to model.ContestStatus) error {
	if !to.Valid() {
		return apperr.Newf(op, apperr.ValidationError, "unknown status %q", to)
	}
	if Terminal(from) {
		return apperr.Newf(op, apperr.InvalidTransition, "contest is %s and cannot change status", from)
	}
	if !CanTransition(from, to) {
		return apperr.Newf(op, apperr.InvalidTransition, "cannot move contest from %s to %s (allowed: %s)",
			from, to, joinStatuses(Targets(from)))
	}
	return nil
}

func joinStatuses(ss []model.ContestStatus) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// Authorize allows the contest's creator or an elevated role.
func Authorize(op string, actor model.Actor, c model.Contest) error {
	if actor.ID == "" {
		return apperr.New(op, apperr.Unauthorized, "authentication required")
	}
	if actor.ID == c.CreatorID || actor.IsAdmin() {
		return nil
	}
	return apperr.New(op, apperr.Forbidden, "only the creator or a contest admin may modify this contest")
}

// CheckDeletable allows deletion only while the contest is a DRAFT.
func CheckDeletable(op string, c model.Contest) error {
	if c.Status != model.StatusDraft {
		return apperr.Newf(op, apperr.InvalidState, "can only delete draft contests (status %s)", c.Status)
	}
	return nil
}
