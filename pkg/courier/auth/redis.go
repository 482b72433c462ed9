package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "courier:token:"

// RedisStore is a TokenStore backed by Redis, so several service instances
// share refreshed tokens instead of each performing its own exchange.
// Entries expire from Redis at the credential's own expiry.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed token store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type redisCredential struct {
	Provider  string    `json:"provider"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Get returns the stored credential for a provider, if any.
func (s *RedisStore) Get(ctx context.Context, provider string) (Credential, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+provider).Bytes()
	if errors.Is(err, redis.Nil) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, fmt.Errorf("redis get: %w", err)
	}

	var rc redisCredential
	if err := json.Unmarshal(data, &rc); err != nil {
		return Credential{}, false, fmt.Errorf("decode credential: %w", err)
	}
	return Credential{Provider: rc.Provider, Token: rc.Token, ExpiresAt: rc.ExpiresAt}, true, nil
}

// Put stores a credential with a TTL matching its expiry.
func (s *RedisStore) Put(ctx context.Context, cred Credential) error {
	data, err := json.Marshal(redisCredential{
		Provider:  cred.Provider,
		Token:     cred.Token,
		ExpiresAt: cred.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	ttl := time.Until(cred.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := s.client.Set(ctx, redisKeyPrefix+cred.Provider, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the credential for a provider.
func (s *RedisStore) Delete(ctx context.Context, provider string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+provider).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

var _ TokenStore = (*RedisStore)(nil)
