package session

import (
	"net/http"
	"strings"

	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/pkg/utilities"
)

// accessTokenFromRequest reads the access token from the accessToken cookie
// or, failing that, from the Authorization header.
func accessTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(accessCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return ""
}

// RequireAuth guards a handler behind a valid access token and injects the
// token's user ID into the request context.
func RequireAuth(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := accessTokenFromRequest(r)
			if token == "" {
				utilities.RespondError(w, http.StatusUnauthorized, "unauthorized request")
				return
			}
			userID, err := tokens.VerifyAccess(token)
			if err != nil {
				utilities.RespondError(w, http.StatusUnauthorized, "invalid access token")
				return
			}
			next.ServeHTTP(w, r.WithContext(utilities.ContextWithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth injects the user ID when a valid access token is present and
// passes the request through untouched otherwise.
func OptionalAuth(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := accessTokenFromRequest(r); token != "" {
				if userID, err := tokens.VerifyAccess(token); err == nil {
					r = r.WithContext(utilities.ContextWithUserID(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
