package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lexconnect/config"
	"lexconnect/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const defaultTokenTTL = 24 * time.Hour

// AuthResponse is returned by every successful login or registration.
type AuthResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionState is what the auth middleware needs to accept a token.
type SessionState struct {
	TokenHash string `json:"tokenHash"`
	Status    string `json:"status"`
}

// SessionSource loads the session state of one role's accounts.
type SessionSource interface {
	SessionState(ctx context.Context, id string) (*SessionState, error)
}

// SessionCache caches SessionState per account.
type SessionCache interface {
	Get(ctx context.Context, role, id string) (*SessionState, error)
	Put(ctx context.Context, role, id string, state SessionState) error
	Invalidate(ctx context.Context, role, id string) error
}

// ErrCacheMiss is returned by SessionCache.Get when nothing is cached.
var ErrCacheMiss = errors.New("session not cached")

type RedisSessionCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisSessionCache(client *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{Client: client, TTL: utils.AuthCacheTTL}
}

func (c *RedisSessionCache) Get(ctx context.Context, role, id string) (*SessionState, error) {
	raw, err := c.Client.Get(ctx, utils.AuthCacheKey(role, id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	var state SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, ErrCacheMiss
	}
	return &state, nil
}

func (c *RedisSessionCache) Put(ctx context.Context, role, id string, state SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, utils.AuthCacheKey(role, id), raw, c.TTL).Err()
}

func (c *RedisSessionCache) Invalidate(ctx context.Context, role, id string) error {
	return c.Client.Del(ctx, utils.AuthCacheKey(role, id)).Err()
}

// IssueToken signs a token for the account and returns the response plus
// the hash to persist.
func IssueToken(role, id string, now time.Time) (*AuthResponse, string, error) {
	ttl := config.AppConfig.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	token, err := utils.GenerateToken(id, role, ttl)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate auth token: %w", err)
	}
	return &AuthResponse{ID: id, Role: role, Token: token, ExpiresAt: now.Add(ttl)}, utils.HashToken(token), nil
}

// DropSession removes a cached session. Failures are logged; the next
// request falls back to the database anyway once the TTL lapses.
func DropSession(ctx context.Context, cache SessionCache, role, id string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, role, id); err != nil {
		utils.GetLogger().Error("Failed to clear auth cache", zap.String("role", role), zap.String("id", id), zap.Error(err))
	}
}
