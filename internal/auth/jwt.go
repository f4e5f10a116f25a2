// Package auth provides JWT token issuance/validation, bcrypt password
// hashing, the token-extraction middleware, and the GitHub OAuth provider.
//
// TOKEN LIFECYCLE:
// A token is issued at registration (embedded in the verification email
// link), at login, at SSO login, and at forgot-password (embedded in the
// reset link). The verification and reset-password endpoints run behind
// the RequireAuth middleware, which validates the token and places the
// identity it encodes into the request context.
//
// The token is a signed HS256 JWT. The signature means the server can
// trust the identity claims without a database lookup; the database is
// still consulted afterwards because the user may have been deleted
// between issuance and use.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultTokenTTL is how long issued tokens stay valid. Verification and
// reset links travel by email, so the lifetime is generous compared to a
// pure session token.
const defaultTokenTTL = 24 * time.Hour

const issuer = "chatconnect"

// Identity is the set of claims a validated token yields. It is what the
// middleware stores in the request context and what handlers act on.
type Identity struct {
	UserID    string
	Email     string
	Username  string
	FirstName string
	LastName  string
}

// claims is the JWT payload. The user ID rides in the standard "sub"
// claim; the remaining identity fields are custom claims so that the
// verification and reset handlers can resolve the user by email+id
// without a prior lookup.
type claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// TokenService handles JWT creation and validation. It holds the HMAC
// secret used to sign and verify tokens — the same secret must be used
// for both.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Generate creates and signs a token for the given identity with the
// default lifetime.
func (s *TokenService) Generate(id Identity) (string, error) {
	return s.GenerateWithDuration(id, defaultTokenTTL)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Used by tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(id Identity, d time.Duration) (string, error) {
	if id.UserID == "" || id.Email == "" {
		return "", errors.New("auth: identity must carry a user ID and email")
	}

	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
		Email:     id.Email,
		Username:  id.Username,
		FirstName: id.FirstName,
		LastName:  id.LastName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the identity it
// encodes.
//
// The jwt library checks the signature, the expiry, and the issuer.
// jwt.WithValidMethods pins the algorithm to HS256 so a token signed with
// "none" (or any other algorithm) is rejected outright.
func (s *TokenService) Validate(tokenStr string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" || c.Email == "" {
		return nil, fmt.Errorf("auth: token is missing identity claims")
	}

	return &Identity{
		UserID:    c.Subject,
		Email:     c.Email,
		Username:  c.Username,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}, nil
}
