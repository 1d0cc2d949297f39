package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fbtrip/skyfare/config"
	"github.com/fbtrip/skyfare/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	searchTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, searchTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		searchTTL: searchTTL,
	}
}

// GetSearch returns cached flight rows for a route, or nil on a miss.
func (c *RedisCache) GetSearch(ctx context.Context, fromIATA, toIATA string) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, searchKey(fromIATA, toIATA)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetSearch(ctx context.Context, fromIATA, toIATA string, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, searchKey(fromIATA, toIATA), payload, c.searchTTL).Err()
}

// GetToken and SetToken back the airport-lookup client's OAuth token.
// The TTL is owned by the caller since the upstream dictates expiry.
func (c *RedisCache) GetToken(ctx context.Context, name string) (string, error) {
	token, err := c.client.Get(ctx, tokenKey(name)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

func (c *RedisCache) SetToken(ctx context.Context, name, token string, ttl time.Duration) error {
	return c.client.Set(ctx, tokenKey(name), token, ttl).Err()
}

func searchKey(from, to string) string {
	return fmt.Sprintf("cache:search:%s:%s", from, to)
}

func tokenKey(name string) string {
	return fmt.Sprintf("cache:token:%s", name)
}
