// Package gates is the session check every protected route runs before its
// handler. Routers apply Guard or GuardRole to whole groups, for example
// r.Use(gates.GuardRole(models.RoleAdmin, gates.DefaultLoginURL)) on /admin.
//
// Handlers behind a guard read the user with authz.UserCtx instead of
// checking again.
package gates

import (
	"net/http"
	"strings"

	"github.com/dalemusser/bloodconnect/internal/app/system/auth"
	"github.com/dalemusser/bloodconnect/internal/app/system/authz"
)

// DefaultLoginURL is where unauthenticated callers are sent.
const DefaultLoginURL = "/login"

// Decision is the outcome of a session check: a user, or a redirect target.
// Exactly one of User and Redirect is set.
type Decision struct {
	User     *auth.SessionUser
	Redirect string
}

// Allowed reports whether the request carries a usable session.
func (d Decision) Allowed() bool { return d.User != nil }

// RequireSession checks for a signed-in user with a well-formed id.
// Without one it returns a redirect to loginURL carrying the current URI.
func RequireSession(r *http.Request, loginURL string) Decision {
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}
	if _, _, _, ok := authz.UserCtx(r); ok {
		u, _ := auth.CurrentUser(r)
		return Decision{User: u}
	}
	return Decision{Redirect: auth.LoginRedirect(r, loginURL)}
}

// Guard is middleware that lets requests with a session through and sends
// everything else to loginURL (HX-Redirect for HTMX, 401 for API callers).
func Guard(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d := RequireSession(r, loginURL); !d.Allowed() {
				auth.Unauthorized(w, r, loginURL)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GuardRole is Guard plus a role check; wrong roles go to /forbidden.
func GuardRole(role, loginURL string) func(http.Handler) http.Handler {
	want := strings.ToLower(strings.TrimSpace(role))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := RequireSession(r, loginURL)
			if !d.Allowed() {
				auth.Unauthorized(w, r, loginURL)
				return
			}
			if strings.ToLower(d.User.Role) != want {
				auth.Forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
