// Package middleware provides HTTP middleware for the offline foundation API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const authScopeContextKey contextKey = "authScope"

// Claims is the minimal bearer-token shape the offline foundation relies
// on: the subject claim doubles as the authScope used to partition the
// replay queue, cache, and overlay persistence per tenant/user. The token
// is treated as a scope tag rather than a capability grant, so no
// role/permission claims are modeled here.
type Claims struct {
	jwt.RegisteredClaims
}

// GetAuthScope retrieves the authScope populated by JWTAuth. Returns
// ("", false) if called outside a request that passed through JWTAuth.
func GetAuthScope(ctx context.Context) (string, bool) {
	scope, ok := ctx.Value(authScopeContextKey).(string)
	return scope, ok
}

func extractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	return parts[1], true
}

// JWTAuth validates a Bearer token's signature and populates authScope
// (the token's subject claim) in the request context. Requests without a
// valid token receive 401.
func JWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, err := parseAuthScope(r, secret)
			if err != nil {
				http.Error(w, "invalid or missing bearer token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authScopeContextKey, scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalJWTAuth is like JWTAuth but lets requests through without a
// token, useful for endpoints that can serve an anonymous authScope.
func OptionalJWTAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, err := parseAuthScope(r, secret)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), authScopeContextKey, scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseAuthScope(r *http.Request, secret string) (string, error) {
	tokenString, ok := extractBearerToken(r)
	if !ok {
		return "", jwt.ErrTokenMalformed
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}

	return claims.Subject, nil
}
