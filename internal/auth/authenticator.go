package auth

import (
	"context"
	"log/slog"
	"time"
)

// Session is the identity resolved from a token
type Session struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticator resolves tokens to sessions, consulting the cache first
type Authenticator struct {
	tokens   *Tokens
	cache    SessionCache
	cacheTTL time.Duration
}

// NewAuthenticator creates an Authenticator. cache may be nil.
func NewAuthenticator(tokens *Tokens, cache SessionCache, cacheTTL time.Duration) *Authenticator {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Authenticator{
		tokens:   tokens,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Authenticate validates token and returns its session
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Session, error) {
	now := a.tokens.now()

	if a.cache != nil {
		cached, err := a.cache.Get(ctx, token)
		if err != nil {
			slog.Warn("session cache read failed", "error", err)
		} else if cached != nil && cached.ExpiresAt.After(now) {
			return cached, nil
		}
	}

	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	session := &Session{
		UserID: claims.UserID,
		Role:   claims.Role,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}

	if a.cache != nil {
		ttl := a.cacheTTL
		if remaining := session.ExpiresAt.Sub(now); remaining < ttl {
			ttl = remaining
		}
		if ttl > 0 {
			if err := a.cache.Set(ctx, token, session, ttl); err != nil {
				slog.Warn("session cache write failed", "error", err)
			}
		}
	}

	return session, nil
}
