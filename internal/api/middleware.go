package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/terra-clan/streak-engine/internal/auth"
)

// Authenticator resolves a raw token to a session
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Session, error)
}

// AuthMiddleware handles session token authentication
type AuthMiddleware struct {
	authn      Authenticator
	cookieName string
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(authn Authenticator, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		authn:      authn,
		cookieName: cookieName,
	}
}

// Authenticate verifies the session token from the Authorization header or session cookie
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.extractToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
			return
		}

		session, err := m.authn.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				slog.Warn("invalid session token", "remote_addr", r.RemoteAddr)
				respondError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired session token")
				return
			}
			slog.Error("failed to authenticate request", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "authentication error")
			return
		}

		slog.Debug("authenticated request", "user_id", session.UserID, "role", session.Role)

		ctx := ContextWithSession(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole returns middleware that only admits sessions carrying role
func (m *AuthMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if session == nil {
				respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}

			if session.Role != role {
				slog.Warn("role denied",
					"user_id", session.UserID,
					"required", role,
					"has", session.Role,
				)
				respondError(w, http.StatusForbidden, "forbidden", "requires role: "+role)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads "Bearer <token>" from Authorization, falling back to the session cookie
func (m *AuthMiddleware) extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
		return strings.TrimSpace(header)
	}

	if m.cookieName != "" {
		if cookie, err := r.Cookie(m.cookieName); err == nil {
			return cookie.Value
		}
	}
	return ""
}
