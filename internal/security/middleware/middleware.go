package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/yourorg/insightforge/internal/domain"
	"github.com/yourorg/insightforge/internal/security/auth"
	"github.com/yourorg/insightforge/internal/security/ratelimit"
	"github.com/yourorg/insightforge/internal/service"
)

type PrincipalContextKey struct{}
type ClaimsContextKey struct{}

// publicPath reports whether a path is reachable without a token
func publicPath(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics", "/api/auth/login":
		return true
	}
	return false
}

// RequestIDMiddleware tags every request with an ID for log correlation
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), "request_id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthMiddleware resolves the bearer token to a live principal and stores
// it in the request context. Revoked tokens and deactivated accounts are
// rejected here, before any handler runs.
func AuthMiddleware(authService *service.AuthService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			user, claims, err := authService.Authenticate(r.Context(), tokenString)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			ctx = context.WithValue(ctx, PrincipalContextKey{}, user)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware throttles per principal, falling back to the remote
// address for unauthenticated requests. Login gets its own stricter
// limit to slow down credential stuffing.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/healthz", "/readyz", "/metrics":
				next.ServeHTTP(w, r)
				return
			}

			key := r.RemoteAddr
			if u := GetPrincipalFromContext(r.Context()); u != nil {
				key = u.Email
			}

			if r.URL.Path == "/api/auth/login" {
				if !limiter.AllowStrict(key, 10, limiter.Window()) {
					http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(key) {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipalFromContext returns the authenticated user, or nil
func GetPrincipalFromContext(ctx context.Context) *domain.User {
	if u := ctx.Value(PrincipalContextKey{}); u != nil {
		return u.(*domain.User)
	}
	return nil
}

// GetClaimsFromContext returns the token claims, or nil
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}
