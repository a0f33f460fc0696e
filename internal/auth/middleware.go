package auth

import (
	"context"
	"net/http"
)

type contextKey string

const claimsContextKey contextKey = "auth.claims"

// Middleware validates the bearer token on every request, consulting cache
// before re-verifying the JWT signature, and rejects the request with 401
// on any failure.
type Middleware struct {
	Issuer *Issuer
	Cache  *TokenCache
}

// NewMiddleware constructs a Middleware.
func NewMiddleware(issuer *Issuer, cache *TokenCache) *Middleware {
	return &Middleware{Issuer: issuer, Cache: cache}
}

// Wrap returns an http.Handler that authenticates requests before calling
// next; unauthenticated requests receive 401 and never reach next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := ExtractBearerToken(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		claims, ok := m.Cache.Get(token)
		if !ok {
			claims, err = m.Issuer.Verify(token)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}
			m.Cache.Put(token, claims)
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext retrieves the authenticated claims stored by Middleware.Wrap.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}
