package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/familieapp/familieapp/internal/api/middleware"
	"github.com/familieapp/familieapp/internal/api/response"
	"github.com/familieapp/familieapp/internal/auth"
	"github.com/familieapp/familieapp/internal/calendar"
	"github.com/familieapp/familieapp/internal/push"
	"github.com/familieapp/familieapp/internal/store"
)

// writeError maps a service error to a problem response. Anything
// unrecognized is logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error) {
	var calErr *calendar.ValidationError
	var pushErr *push.ValidationError

	switch {
	case errors.As(err, &calErr):
		response.BadRequest(w, r, "Invalid event payload.", calErr.Errors)
	case errors.As(err, &pushErr):
		response.BadRequest(w, r, "Invalid push payload.", pushErr.Errors)
	case errors.Is(err, store.ErrConflict):
		response.Conflict(w, r, "The data changed concurrently. Retry the request.")
	case errors.Is(err, push.ErrNotConfigured):
		response.PushNotConfigured(w, r)
	case errors.Is(err, auth.ErrUnauthorized):
		response.Unauthorized(w, r, "Unauthorized")
	default:
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		response.InternalError(w, r)
	}
}
