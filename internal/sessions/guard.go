package sessions

import (
	"context"
	"net/http"

	"github.com/pomerium/teamdash/internal/httputil"
	"github.com/pomerium/teamdash/internal/log"
)

// Guard decides whether protected content may be shown.
type Guard struct {
	store *Store
}

// NewGuard creates a Guard backed by store.
func NewGuard(store *Store) *Guard {
	return &Guard{store: store}
}

// CanEnter reports whether a valid session exists.
func (g *Guard) CanEnter(ctx context.Context) bool {
	return g.store.IsValid(ctx)
}

// Require returns middleware that only lets requests through while a valid
// session exists. Other requests are redirected to loginPath, or receive a
// 401 if they asked for JSON. The redirect is a plain 302 so the protected
// URL is not kept as a separate history entry.
func (g *Guard) Require(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.CanEnter(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			log.Debug(r.Context()).Str("path", r.URL.Path).Msg("sessions: no valid session")
			if httputil.WantsJSON(r) {
				httpErr := &httputil.HTTPError{Status: http.StatusUnauthorized, Err: ErrNoSessionFound}
				httpErr.ErrorResponse(w, r)
				return
			}
			httputil.Redirect(w, r, loginPath, http.StatusFound)
		})
	}
}
