package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// issuer is stamped on every session token and checked on the way back in, so
// tokens minted by another service sharing the secret are rejected.
const issuer = "video-catalog"

// MinSecretLength is the shortest signing secret NewTokenService accepts.
const MinSecretLength = 16

var (
	ErrTokenExpired = errors.New("auth: session expired")
	ErrTokenInvalid = errors.New("auth: invalid session token")
)

// Session is the decoded content of a session cookie.
//
// ID is a unique token id (the JWT "jti" claim). Logout revokes sessions by ID
// so a copied cookie stops working once its owner logs out.
type Session struct {
	Username  string
	ID        string
	ExpiresAt time.Time
}

// TokenService signs and verifies session tokens.
//
// TOKEN FORMAT:
// A session is an HS256 JWT. The username is the "sub" claim:
//
//	{"iss":"video-catalog","sub":"alice","jti":"cs1u...","iat":...,"exp":...}
//
// Nothing but the secret is needed to verify it, so request handling never
// touches the database to authenticate a cookie.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. ttl is the session lifetime.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: session secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of newly issued sessions.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates and signs a new session token for username.
func (s *TokenService) Issue(username string) (string, Session, error) {
	if username == "" {
		return "", Session{}, errors.New("auth: cannot issue a session without a username")
	}

	now := s.now()
	sess := Session{
		Username:  username,
		ID:        xid.New().String(),
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}

	c := jwt.RegisteredClaims{
		Subject:   sess.Username,
		ID:        sess.ID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("auth: signing session: %w", err)
	}
	return signed, sess, nil
}

// Parse verifies a session token and returns its content.
//
// The signature, algorithm (HS256 only, which blocks "alg":"none" and key
// confusion tricks), issuer and expiry are all checked by the jwt library.
func (s *TokenService) Parse(tokenStr string) (Session, error) {
	c := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		tokenStr,
		c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrTokenExpired
		}
		return Session{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || c.Subject == "" || c.ID == "" {
		return Session{}, ErrTokenInvalid
	}

	return Session{
		Username:  c.Subject,
		ID:        c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
