package redis

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/diosesguerreros/vehicle-portal/internal/core/ports"
)

const keyPrefix = "portal:token:"

// TokenStore keeps one client's bearer token in Redis.
// Key format: portal:token:<blake2b-256(client id)>
type TokenStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewTokenStore returns the store for clientID. A zero ttl keeps the token
// until it is cleared.
func NewTokenStore(client *redis.Client, clientID string, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, key: TokenKey(clientID), ttl: ttl}
}

// Factory binds client and ttl so a store can be built per client.
func Factory(client *redis.Client, ttl time.Duration) func(clientID string) ports.TokenStore {
	return func(clientID string) ports.TokenStore {
		return NewTokenStore(client, clientID, ttl)
	}
}

// TokenKey derives the storage key for clientID. The raw id never reaches Redis.
func TokenKey(clientID string) string {
	sum := blake2b.Sum256([]byte(clientID))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, s.ttl).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
