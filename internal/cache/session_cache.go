package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key does not exist or has expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Key namespaces used by the auth core. Session records are keyed by the
// session identifier embedded in the token, blacklist entries by the raw
// token string, reset tickets by the ticket value itself.
const (
	sessionPrefix   = "jwt:"
	blacklistPrefix = "blacklist:"
	resetPrefix     = "reset:"
)

// SessionKey builds the cache key for a session record.
func SessionKey(sessionID string) string { return sessionPrefix + sessionID }

// BlacklistKey builds the cache key for a revoked raw token.
func BlacklistKey(rawToken string) string { return blacklistPrefix + rawToken }

// ResetKey builds the cache key for a password-reset ticket.
func ResetKey(ticket string) string { return resetPrefix + ticket }

// SessionCache abstracts the shared key-value store holding session records,
// blacklist entries and reset tickets. It is injected wherever session state
// is needed so tests can back it with an embedded server.
type SessionCache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	// GetDel atomically reads and removes a key. The second concurrent
	// caller observes ErrCacheMiss, which is what makes reset-ticket
	// consumption exactly-once.
	GetDel(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

type redisSessionCache struct {
	client *redis.Client
}

// NewRedisSessionCache wraps a connected Redis client.
func NewRedisSessionCache(client *redis.Client) SessionCache {
	return &redisSessionCache{client: client}
}

func (c *redisSessionCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisSessionCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *redisSessionCache) GetDel(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.GetDel(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *redisSessionCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisSessionCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *redisSessionCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	return c.client.TTL(ctx, key).Result()
}
