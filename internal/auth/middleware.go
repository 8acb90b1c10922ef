package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
//
// Only this package can create a key of type contextKey, so no other package
// can read or shadow the identity stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller of a request.
//
// It is derived per request from the session cookie and stored in the
// request context. There is no process-wide "current user".
type Identity struct {
	Username string
	Admin    bool
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller's identity.
//
// Returns (Identity{}, false) for anonymous requests.
//
//	id, ok := auth.IdentityFromContext(r.Context())
//	if !ok {
//	    // anonymous
//	}
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.Username != ""
}

// LoadSession resolves the session cookie into an Identity and stores it in the
// request context. It never blocks a request: a missing, expired, forged or
// revoked cookie simply leaves the request anonymous. Route guards decide what
// anonymous callers may do.
//
// Chi applies middlewares in a chain, so LoadSession is mounted once at the
// router root and RequireSession / RequireAdmin are mounted per route group:
//
//	req → LoadSession → RequireSession → RequireAdmin → handler
func LoadSession(sessions *SessionManager, policy *AdminPolicy, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Identify(r)
			switch {
			case err == nil:
				id := Identity{Username: sess.Username, Admin: policy.IsAdmin(sess.Username)}
				r = r.WithContext(WithIdentity(r.Context(), id))
			case errors.Is(err, ErrNoSession):
			case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrSessionRevoked):
				logger.Debug("ignoring session cookie", slog.String("reason", err.Error()))
			default:
				// Revocation store failure: treat the request as anonymous.
				logger.Error("resolving session", slog.String("error", err.Error()))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession redirects anonymous requests to the landing page.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin lets only administrators through. Anonymous requests go to the
// landing page; signed-in non-admins are sent back to the dashboard.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		if !id.Admin {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
