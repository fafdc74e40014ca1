package httpapi

import (
	"net/http"

	"jobtrack.dev/internal/auth"
	"jobtrack.dev/internal/obs"
)

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess auth.Session)

// authenticated resolves the bearer token into a session before calling next.
func (a *API) authenticated(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractBearer(r.Header.Get("Authorization"))
		if err != nil {
			a.log.DebugContext(r.Context(), "bearer token rejected", "reason", err.Error())
			obs.AuthEvent("authenticate", "failure")
			a.handleError(w, r, err)
			return
		}
		sess, err := a.guard.Authenticate(r.Context(), token)
		if err != nil {
			obs.AuthEvent("authenticate", "failure")
			a.handleError(w, r, err)
			return
		}
		ctx := auth.ContextWithSession(r.Context(), sess)
		next(w, r.WithContext(ctx), sess)
	}
}

// adminOnly is authenticated plus the admin role check.
func (a *API) adminOnly(next sessionHandler) http.HandlerFunc {
	return a.authenticated(func(w http.ResponseWriter, r *http.Request, sess auth.Session) {
		if err := auth.RequireRole(sess, auth.RoleAdmin); err != nil {
			a.audit(r.Context(), "admin.access.denied", map[string]any{"path": r.URL.Path})
			a.handleError(w, r, err)
			return
		}
		next(w, r, sess)
	})
}
