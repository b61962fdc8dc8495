package session

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	CookieName  = "hr_session"
	TokenHeader = "X-Session-Token"
)

type ctxKey struct{}

func WithID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, sessionID)
}

func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

type MiddlewareOptions struct {
	SecureCookie bool
}

// Middleware resolves the caller's session from the hr_session cookie or a
// bearer token. Callers without a valid token get a fresh session, returned
// both as a cookie and in the X-Session-Token header.
func Middleware(m *Manager, logger *slog.Logger, opts MiddlewareOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := tokenFromRequest(r); token != "" {
				id, err := m.Parse(token)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
					return
				}
				logger.DebugContext(r.Context(), "rejected session token", "error", err)
			}

			id := uuid.NewString()
			token, err := m.Issue(id)
			if err != nil {
				logger.ErrorContext(r.Context(), "failed to issue session token", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(m.TTL().Seconds()),
				HttpOnly: true,
				Secure:   opts.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(TokenHeader, token)
			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
