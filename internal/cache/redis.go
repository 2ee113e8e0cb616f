package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache backs the Cache interface with Redis. Any backend error
// degrades to a miss (reads) or a no-op (writes) so a degraded Redis
// never halts the message pipeline.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	return &RedisCache{client: client}
}

// NewRedisCacheFromClient wraps an existing client; used by tests.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(scope, key string) (string, bool) {
	ctx := context.Background()
	value, err := c.client.Get(ctx, fullKey(scope, key)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Printf("cache: redis get failed, treating as miss: %v", err)
		return "", false
	}
	return value, true
}

func (c *RedisCache) Set(scope, key, value string, ttl time.Duration) {
	ctx := context.Background()
	if err := c.client.Set(ctx, fullKey(scope, key), value, ttl).Err(); err != nil {
		log.Printf("cache: redis set failed for %s: %v", fullKey(scope, key), err)
	}
}

func (c *RedisCache) Delete(scope, key string) {
	ctx := context.Background()
	if err := c.client.Del(ctx, fullKey(scope, key)).Err(); err != nil {
		log.Printf("cache: redis del failed for %s: %v", fullKey(scope, key), err)
	}
}

func (c *RedisCache) ClearScope(scope string) {
	ctx := context.Background()
	iter := c.client.Scan(ctx, 0, scope+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("cache: redis del failed for %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache: redis scan failed for scope %s: %v", scope, err)
	}
}

// Ping reports backend reachability for the health endpoint.
func (c *RedisCache) Ping() error {
	return c.client.Ping(context.Background()).Err()
}
