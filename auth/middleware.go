package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xraph/keeper/access"
)

// CookieName is the cookie carrying the session token.
const CookieName = "keeper_session"

type tokenKey struct{}

// WithToken returns a context carrying the session token of the request.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the session token stored in ctx.
func TokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

// TokenFromRequest extracts the session token from the Authorization
// bearer header, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Middleware resolves the request token and attaches the subject to the
// request context. Requests without a valid token continue anonymously.
func Middleware(s *Strategy, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			subject, err := s.Resolve(r.Context(), token)
			if err != nil {
				logger.Warn("auth: resolve session failed", "error", err)
				http.Error(w, "session lookup failed", http.StatusServiceUnavailable)
				return
			}
			ctx := WithToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(access.WithSubject(ctx, subject)))
		})
	}
}
