package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys in this package, so
// no other package can read or shadow the identity value.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth is a middleware that enforces authentication on protected
// routes (verification, reset-password, sso-login).
//
// The token is looked for in three places, in order:
//  1. the "token" query parameter — verification and reset links arrive
//     by email, so the token rides in the URL
//  2. the "Authorization: Bearer <token>" header — API clients
//  3. the "token" HttpOnly cookie — set by the GitHub OAuth callback
//
// If the token is missing or invalid the chain stops with 401 and a JSON
// error body matching the rest of the API.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"valid authentication token required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated identity from the
// request context. Returns (nil, false) if the request is anonymous.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// extractIdentity finds a token on the request and validates it.
func extractIdentity(r *http.Request, tokens *TokenService) (*Identity, error) {
	if raw := r.URL.Query().Get("token"); raw != "" {
		return tokens.Validate(raw)
	}

	if header := r.Header.Get("Authorization"); header != "" {
		raw := strings.TrimPrefix(header, "Bearer ")
		if raw != header && raw != "" {
			return tokens.Validate(raw)
		}
	}

	cookie, err := r.Cookie("token")
	if err != nil {
		// http.ErrNoCookie — no credential anywhere on the request
		return nil, err
	}
	return tokens.Validate(cookie.Value)
}
