package middleware

import (
	"net/http"

	"github.com/familieapp/familieapp/internal/api/models"
)

// Authorizer validates the Authorization header of a trigger request.
type Authorizer interface {
	Authorize(header string) error
}

// TriggerAuth rejects requests whose Authorization header the authorizer
// does not accept.
func TriggerAuth(authz Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := authz.Authorize(r.Header.Get("Authorization")); err != nil {
				writeProblem(w, r, models.NewUnauthorized(GetRequestID(r.Context()), "Unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireEnabled answers with the problem built by disabled while enabled
// reports false.
func RequireEnabled(enabled func() bool, disabled func(traceID string) *models.Problem) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled() {
				writeProblem(w, r, disabled(GetRequestID(r.Context())))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
