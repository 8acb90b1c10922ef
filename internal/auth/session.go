package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultCookieName is the session cookie name when configuration sets none.
const DefaultCookieName = "session"

// ErrNoSession means the request carried no session cookie.
var ErrNoSession = errors.New("auth: no session")

// ErrSessionRevoked means the cookie is validly signed but was logged out.
var ErrSessionRevoked = errors.New("auth: session revoked")

// SessionManager binds session tokens to an HTTP cookie.
//
// COOKIE ATTRIBUTES:
//   - HttpOnly: page scripts cannot read the token.
//   - SameSite=Lax: the cookie is not sent on cross-site POSTs, which covers
//     the state-changing forms (/add_video, /delete_video).
//   - Secure: set from configuration; enable it behind TLS.
type SessionManager struct {
	tokens     *TokenService
	revoker    Revoker
	cookieName string
	secure     bool
}

// NewSessionManager creates a SessionManager. A nil revoker means NopRevoker
// and an empty cookieName means DefaultCookieName.
func NewSessionManager(tokens *TokenService, revoker Revoker, cookieName string, secure bool) *SessionManager {
	if revoker == nil {
		revoker = NopRevoker{}
	}
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &SessionManager{
		tokens:     tokens,
		revoker:    revoker,
		cookieName: cookieName,
		secure:     secure,
	}
}

// CookieName returns the name of the session cookie.
func (m *SessionManager) CookieName() string {
	return m.cookieName
}

// Start issues a new session for username and sets it on the response.
func (m *SessionManager) Start(w http.ResponseWriter, username string) (Session, error) {
	token, sess, err := m.tokens.Issue(username)
	if err != nil {
		return Session{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(m.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

// Identify returns the session carried by the request.
//
// It returns ErrNoSession when there is no cookie, ErrTokenExpired or
// ErrTokenInvalid for a bad token and ErrSessionRevoked after logout.
func (m *SessionManager) Identify(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return Session{}, ErrNoSession
	}

	sess, err := m.tokens.Parse(cookie.Value)
	if err != nil {
		return Session{}, err
	}

	revoked, err := m.revoker.IsRevoked(r.Context(), sess.ID)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, ErrSessionRevoked
	}
	return sess, nil
}

// End clears the session cookie and revokes the session it carried.
//
// The cookie is cleared unconditionally, even when the request had no valid
// session or the revocation store is unreachable. The returned error only
// reports a failed revocation so the caller can log it.
func (m *SessionManager) End(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := m.tokens.Parse(cookie.Value)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := m.revoker.Revoke(ctx, sess.ID, sess.ExpiresAt); err != nil {
		return fmt.Errorf("auth: revoking session %s: %w", sess.ID, err)
	}
	return nil
}
