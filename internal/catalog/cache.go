package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, id string) (Item, error)
	Set(ctx context.Context, item Item) error
	Delete(ctx context.Context, id string) error
}

type RedisCache struct {
	client  redis.UniversalClient
	baseTTL time.Duration
}

func NewRedisCache(client redis.UniversalClient, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = 10 * time.Minute
	}
	return &RedisCache{client: client, baseTTL: baseTTL}
}

func (r *RedisCache) Get(ctx context.Context, id string) (Item, error) {
	data, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Item{}, ErrCacheMiss
	}
	if err != nil {
		return Item{}, fmt.Errorf("redis get failed: %w", err)
	}

	var it Item
	if err := json.Unmarshal(data, &it); err != nil {
		return Item{}, fmt.Errorf("unmarshal catalog item failed: %w", err)
	}
	return it, nil
}

// Set stores the item with a TTL spread over baseTTL..1.5*baseTTL so entries
// written together do not expire together.
func (r *RedisCache) Set(ctx context.Context, it Item) error {
	data, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("marshal catalog item failed: %w", err)
	}
	jitter := time.Duration(rand.Int64N(int64(r.baseTTL/2) + 1))
	if err := r.client.Set(ctx, cacheKey(it.ID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(id string) string {
	return "catalog:item:" + id
}
