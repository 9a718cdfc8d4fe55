package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCache stores validated sessions keyed by token
type SessionCache interface {
	// Get returns (nil, nil) on a cache miss
	Get(ctx context.Context, token string) (*Session, error)
	Set(ctx context.Context, token string, session *Session, ttl time.Duration) error
}

type redisSessionCache struct {
	client *redis.Client
}

// NewRedisSessionCache creates a SessionCache backed by Redis
func NewRedisSessionCache(client *redis.Client) SessionCache {
	return &redisSessionCache{client: client}
}

func (c *redisSessionCache) Get(ctx context.Context, token string) (*Session, error) {
	data, err := c.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session cache: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode cached session: %w", err)
	}
	return &s, nil
}

func (c *redisSessionCache) Set(ctx context.Context, token string, session *Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return c.client.Set(ctx, sessionKey(token), data, ttl).Err()
}

// sessionKey is the Redis key of token; the raw token is never stored
func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}
