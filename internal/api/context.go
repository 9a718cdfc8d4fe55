package api

import (
	"context"

	"github.com/terra-clan/streak-engine/internal/auth"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext extracts the authenticated session from context
func SessionFromContext(ctx context.Context) *auth.Session {
	session, ok := ctx.Value(sessionContextKey).(*auth.Session)
	if !ok {
		return nil
	}
	return session
}

// ContextWithSession adds the authenticated session to context
func ContextWithSession(ctx context.Context, session *auth.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
