package api

import (
	"errors"
	"net/http"

	"github.com/flencrypto/cfs-platform/internal/domain/apperr"
	"github.com/flencrypto/cfs-platform/internal/domain/types"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrBodyShape  = errors.New("request body must be a JSON object")
)

// Stable error strings returned in the envelope.
const (
	msgUnauthorized      = "Unauthorized"
	msgForbidden         = "Forbidden"
	msgContestNotFound   = "Contest not found"
	msgUserNotFound      = "User not found"
	msgValidation        = "Validation failed"
	msgInvalidProfile    = "Invalid profile payload"
	msgDeleteDraftOnly   = "Can only delete draft contests"
	msgInvalidTransition = "Invalid status transition"
	msgUnavailable       = "Service temporarily unavailable"
	msgRateLimited       = "Too many requests"
	msgNotFound          = "Not found"
	msgDeleted           = "Contest deleted successfully"
)

// failure holds the route-specific strings for kinds whose wording depends
// on the resource.
type failure struct {
	notFound string
	invalid  string
	internal string
}

var (
	contestListFailure   = failure{notFound: msgContestNotFound, invalid: msgValidation, internal: "Failed to fetch contests"}
	contestGetFailure    = failure{notFound: msgContestNotFound, invalid: msgValidation, internal: "Failed to fetch contest"}
	contestCreateFailure = failure{notFound: msgContestNotFound, invalid: msgValidation, internal: "Failed to create contest"}
	contestUpdateFailure = failure{notFound: msgContestNotFound, invalid: msgValidation, internal: "Failed to update contest"}
	contestDeleteFailure = failure{notFound: msgContestNotFound, invalid: msgValidation, internal: "Failed to delete contest"}
	sportsFailure        = failure{notFound: msgNotFound, invalid: msgValidation, internal: "Failed to fetch sports"}
	profileGetFailure    = failure{notFound: msgUserNotFound, invalid: msgInvalidProfile, internal: "Failed to fetch user profile"}
	profileUpdateFailure = failure{notFound: msgUserNotFound, invalid: msgInvalidProfile, internal: "Failed to update user profile"}
)

// message returns the envelope error string for kind.
func (f failure) message(kind apperr.Kind) string {
	switch kind {
	case apperr.ValidationError:
		return f.invalid
	case apperr.Unauthorized:
		return msgUnauthorized
	case apperr.Forbidden:
		return msgForbidden
	case apperr.NotFound:
		return f.notFound
	case apperr.InvalidState:
		return msgDeleteDraftOnly
	case apperr.InvalidTransition:
		return msgInvalidTransition
	case apperr.ServiceUnavailable:
		return msgUnavailable
	case apperr.RateLimited:
		return msgRateLimited
	default:
		return f.internal
	}
}

// writeError renders err as a failure envelope. Field details are attached
// only to validation errors.
func writeError(w http.ResponseWriter, err error, f failure) {
	kind := apperr.KindOf(err)
	env := types.Envelope{Success: false, Error: f.message(kind)}
	if kind == apperr.ValidationError {
		env.Details = apperr.DetailsOf(err)
	}
	writeJSON(w, apperr.HTTPStatus(kind), env)
}
