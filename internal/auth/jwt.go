// Package auth issues and checks session tokens, hashes passwords and
// drives the OAuth code flow for Google and GitHub sign-in.
//
// A session is a signed JWT kept in the HttpOnly "token" cookie:
//
//  1. the user signs in (credentials or OAuth)
//  2. the server issues a token carrying the account id and email
//  3. middleware validates the cookie on each request and puts the
//     Identity into the request context
//
// Nothing about a session is stored server-side; signing out only clears
// the cookie.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "repo-explainer"
	// SessionTTL is how long a session token stays valid.
	SessionTTL = 7 * 24 * time.Hour
)

// Identity is the signed-in user as seen by request handlers.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Key is the value history rows are scoped by: the email, or the account
// id for accounts without one.
func (i Identity) Key() string {
	if i.Email != "" {
		return i.Email
	}
	return i.UserID
}

type TokenService struct {
	secret []byte
}

// NewTokenService requires a secret of at least 16 bytes.
// Generate one with: openssl rand -hex 32
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims carries the account id in "sub" and the email alongside it.
type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Generate signs a session token valid for SessionTTL.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.GenerateWithDuration(id, SessionTTL)
}

// GenerateWithDuration signs a token that expires after d. Tests use a
// negative d to get an already-expired token.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	if id.UserID == "" {
		return "", errors.New("auth: identity has no user id")
	}
	now := time.Now()

	c := claims{
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, issuer, algorithm and expiry and returns
// the identity the token was issued for.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		// Pinning the method rules out "none" and RS/HS confusion.
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, errors.New("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Identity{}, errors.New("auth: token has no subject")
	}

	return Identity{UserID: c.Subject, Email: c.Email}, nil
}
