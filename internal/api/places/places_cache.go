package places

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// PhotoCache remembers resolved photo URLs by normalised place name.
type PhotoCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, photoURL string) error
}

var (
	_ PhotoCache = (*MemoryPhotoCache)(nil)
	_ PhotoCache = (*RedisPhotoCache)(nil)
)

type MemoryPhotoCache struct {
	c *cache.Cache
}

func NewMemoryPhotoCache(ttl time.Duration) *MemoryPhotoCache {
	return &MemoryPhotoCache{c: cache.New(ttl, 2*ttl)}
}

func (m *MemoryPhotoCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (m *MemoryPhotoCache) Set(_ context.Context, key, photoURL string) error {
	m.c.Set(key, photoURL, cache.DefaultExpiration)
	return nil
}

const redisKeyPrefix = "places:photo:"

// RedisPhotoCache shares resolutions between replicas.
type RedisPhotoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPhotoCache(rdb *redis.Client, ttl time.Duration) *RedisPhotoCache {
	return &RedisPhotoCache{rdb: rdb, ttl: ttl}
}

func (r *RedisPhotoCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisPhotoCache) Set(ctx context.Context, key, photoURL string) error {
	return r.rdb.Set(ctx, redisKeyPrefix+key, photoURL, r.ttl).Err()
}
